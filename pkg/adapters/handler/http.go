package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
	baseURL string
}

func NewHTTPHandler(service ports.LinkService, baseURL string) *HTTPHandler {
	return &HTTPHandler{service: service, baseURL: baseURL}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	OriginalURL string     `json:"original_url" validate:"required,http_url,max=2048"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// UpdateLinkRequest payload; omitted fields are left unchanged
type UpdateLinkRequest struct {
	OriginalURL *string    `json:"original_url,omitempty" validate:"omitempty,http_url,max=2048"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type LinkResponse struct {
	*domain.Link
	ShortURL string `json:"short_url"`
}

type ResolveResponse struct {
	OriginalURL string `json:"original_url"`
	ShortCode   string `json:"short_code"`
	ClickCount  int64  `json:"click_count"`
}

func (h *HTTPHandler) toResponse(link *domain.Link) LinkResponse {
	return LinkResponse{Link: link, ShortURL: h.baseURL + "/" + link.ShortCode}
}

func clickInfo(r *http.Request) ports.ClickInfo {
	return ports.ClickInfo{
		Referer:   r.Referer(),
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	}
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	link, err := h.service.Create(r.Context(), ports.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		ExpiresAt:   req.ExpiresAt,
		OwnerID:     userID(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(link))
}

// Redirect to original URL
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("short_code")

	link, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("no_stat") == "" {
		if _, err := h.service.RecordClick(r.Context(), link, clickInfo(r)); err != nil {
			logger.FromContext(r.Context()).Error("failed to record click",
				slog.String("short_code", code),
				slog.String("error", err.Error()),
			)
		}
	}

	http.Redirect(w, r, link.RedirectURL(), http.StatusFound)
}

// Resolve records the click and returns the destination as JSON, for clients
// that perform the redirect themselves.
func (h *HTTPHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("short_code")

	link, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	count, err := h.service.RecordClick(r.Context(), link, clickInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ResolveResponse{
		OriginalURL: link.RedirectURL(),
		ShortCode:   link.ShortCode,
		ClickCount:  count,
	})
}

// Search finds the oldest link pointing at original_url
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	originalURL := r.URL.Query().Get("original_url")
	if originalURL == "" {
		writeMessage(w, http.StatusBadRequest, "original_url is required")
		return
	}

	link, err := h.service.SearchByOriginalURL(r.Context(), originalURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if link == nil {
		writeError(w, r, domain.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(link))
}

// Get Stats for a Link
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), r.PathValue("short_code"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// List the caller's links
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	search := r.URL.Query().Get("search")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	links, count, err := h.service.ListLinks(r.Context(), userID(r.Context()), page, limit, search)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := make([]LinkResponse, 0, len(links))
	for i := range links {
		data = append(data, h.toResponse(&links[i]))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"total": count,
		"page":  page,
		"limit": limit,
	})
}

// Update Link
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateLinkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	link, err := h.service.Update(r.Context(), r.PathValue("short_code"), userID(r.Context()), ports.UpdateLinkInput{
		OriginalURL: req.OriginalURL,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(link))
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("short_code"), userID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
