package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/shortcode"
	"github.com/wadjakorntonsri/shortlink/pkg/core/validation"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type LinkService struct {
	repo     ports.LinkRepository
	safety   *validation.SafetyChecker
	aliases  validation.AliasPolicy
	previews ports.PreviewFetcher

	codeLength     int
	maxAttempts    int
	allowAnonymous bool
	ipSalt         string

	now      func() time.Time
	generate func(length int) (string, error)
}

func NewLinkService(repo ports.LinkRepository, prober ports.ContentTypeProber, previews ports.PreviewFetcher, cfg config.LinkConfig) *LinkService {
	s := &LinkService{
		repo:           repo,
		safety:         validation.NewSafetyChecker(prober),
		aliases:        validation.AliasPolicy{MinLength: cfg.MinAliasLength, MaxLength: cfg.MaxAliasLength},
		previews:       previews,
		codeLength:     cfg.ShortCodeLength,
		maxAttempts:    cfg.MaxGenerateAttempts,
		allowAnonymous: cfg.AllowAnonymous,
		ipSalt:         cfg.IPHashSalt,
		now:            time.Now,
		generate:       shortcode.Generate,
	}
	if s.aliases.MaxLength == 0 {
		s.aliases = validation.DefaultAliasPolicy()
	}
	if s.codeLength < 1 {
		s.codeLength = shortcode.DefaultLength
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}
	return s
}

func (s *LinkService) Create(ctx context.Context, in ports.CreateLinkInput) (*domain.Link, error) {
	if in.OwnerID == "" && !s.allowAnonymous {
		return nil, domain.ErrUnauthenticated
	}
	in.OriginalURL = validation.NormalizeURL(in.OriginalURL)
	if err := s.safety.IsSafe(ctx, in.OriginalURL); err != nil {
		return nil, err
	}
	if in.CustomAlias != "" {
		if err := s.aliases.Validate(in.CustomAlias); err != nil {
			return nil, err
		}
	}

	link := &domain.Link{
		CustomAlias: in.CustomAlias,
		OriginalURL: in.OriginalURL,
		UserID:      in.OwnerID,
		ExpiresAt:   in.ExpiresAt,
		Preview:     s.previews.Fetch(ctx, in.OriginalURL),
	}

	if in.CustomAlias != "" {
		link.ShortCode = in.CustomAlias
		if err := s.insert(ctx, link); err != nil {
			return nil, err
		}
		return link, nil
	}

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		link.ShortCode, err = s.generate(s.codeLength)
		if err != nil {
			return nil, err
		}
		if validation.IsReserved(link.ShortCode) {
			err = fmt.Errorf("%w: %s is reserved", domain.ErrAliasTaken, link.ShortCode)
			continue
		}

		err = s.insert(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrAliasTaken) {
			return nil, err
		}
		logger.FromContext(ctx).Warn("short code collision, retrying",
			"short_code", link.ShortCode, "attempt", attempt)
	}

	return nil, fmt.Errorf("%w: no free short code after %d attempts", domain.ErrAliasTaken, s.maxAttempts)
}

func (s *LinkService) insert(ctx context.Context, link *domain.Link) error {
	link.ID = uuid.NewString()
	link.CreatedAt = s.now().UTC()
	link.ClickCount = 0
	return s.repo.Create(ctx, link)
}

// Resolve returns the live link for code. Expired links stay in storage.
func (s *LinkService) Resolve(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, domain.ErrNotFound
	}
	if link.IsExpired(s.now()) {
		return nil, domain.ErrExpired
	}
	return link, nil
}

// RecordClick stores a visit and bumps the click counter atomically,
// returning the new count.
func (s *LinkService) RecordClick(ctx context.Context, link *domain.Link, click ports.ClickInfo) (int64, error) {
	visit := &domain.Visit{
		LinkID:    link.ID,
		Referer:   click.Referer,
		UserAgent: click.UserAgent,
		IPHash:    s.hashIP(click.IP),
		CreatedAt: s.now().UTC(),
	}

	count, err := s.repo.RecordVisit(ctx, visit)
	if err != nil {
		return 0, err
	}
	link.ClickCount = count
	link.LastAccessed = &visit.CreatedAt
	return count, nil
}

func (s *LinkService) hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.ipSalt + ip))
	return hex.EncodeToString(sum[:])
}

func (s *LinkService) Update(ctx context.Context, code, ownerID string, in ports.UpdateLinkInput) (*domain.Link, error) {
	link, err := s.authorize(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	if in.OriginalURL != nil {
		target := validation.NormalizeURL(*in.OriginalURL)
		if err := s.safety.IsSafe(ctx, target); err != nil {
			return nil, err
		}
		link.OriginalURL = target
		link.Preview = s.previews.Fetch(ctx, link.OriginalURL)
	}
	if in.ExpiresAt != nil {
		link.ExpiresAt = in.ExpiresAt
	}

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) Delete(ctx context.Context, code, ownerID string) error {
	link, err := s.authorize(ctx, code, ownerID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, link.ID)
}

// authorize resolves code and checks that ownerID owns it.
func (s *LinkService) authorize(ctx context.Context, code, ownerID string) (*domain.Link, error) {
	link, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if !link.OwnedBy(ownerID) {
		return nil, domain.ErrForbidden
	}
	return link, nil
}

// SearchByOriginalURL returns the oldest link with exactly this destination,
// or nil when there is none.
func (s *LinkService) SearchByOriginalURL(ctx context.Context, originalURL string) (*domain.Link, error) {
	return s.repo.FindByOriginalURL(ctx, validation.NormalizeURL(originalURL))
}

func (s *LinkService) ListLinks(ctx context.Context, ownerID string, page, limit int, search string) ([]domain.Link, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	filters := map[string]interface{}{
		"user_id": ownerID,
		"search":  search,
	}

	links, err := s.repo.List(ctx, limit, offset, filters)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	return links, count, nil
}

func (s *LinkService) GetStats(ctx context.Context, code string) (*domain.LinkStats, error) {
	link, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetLinkStats(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	stats.Link = link
	return stats, nil
}

var _ ports.LinkService = (*LinkService)(nil)
