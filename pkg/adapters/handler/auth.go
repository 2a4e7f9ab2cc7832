package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const (
	oauthStateCookie   = "oauthstate"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	formContentType    = "application/x-www-form-urlencoded"
	multipartFormsType = "multipart/form-data"
)

type AuthHandler struct {
	auth          ports.AuthService
	oauthConfig   *oauth2.Config
	userInfoURL   string
	frontendURL   string
	allowedEmails []string
	isProduction  bool
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func NewAuthHandler(cfg *config.Config, auth ports.AuthService) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:   googleUserInfoURL,
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.IsProduction(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login accepts either a JSON body or an HTML form with username/password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == formContentType || mediaType == multipartFormsType {
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
		if !validateRequest(w, &req) {
			return
		}
	} else if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.auth.TokenTTL().Seconds()),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	oauthState, err := r.Cookie(oauthStateCookie)
	if err != nil {
		log.Warn("oauth callback without state cookie", slog.String("error", err.Error()))
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}
	if r.FormValue("state") != oauthState.Value {
		log.Warn("oauth callback with mismatched state")
		writeMessage(w, http.StatusBadRequest, "invalid oauth state")
		return
	}

	googleUser, err := h.fetchGoogleUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !googleUser.VerifiedEmail {
		writeMessage(w, http.StatusForbidden, "google account email is not verified")
		return
	}
	if len(h.allowedEmails) > 0 && !slices.Contains(h.allowedEmails, googleUser.Email) {
		log.Warn("oauth login rejected by allowlist", slog.String("email", googleUser.Email))
		writeMessage(w, http.StatusForbidden, "access denied: your email is not in the allowlist")
		return
	}

	token, err := h.auth.LoginWithGoogle(r.Context(), googleUser.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setAuthCookie(w, token)
	log.Info("google login successful", slog.String("email", googleUser.Email))
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchGoogleUser(r *http.Request) (*GoogleUser, error) {
	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	resp, err := h.oauthConfig.Client(r.Context(), token).Get(h.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	return &user, nil
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.auth.TokenTTL()),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
