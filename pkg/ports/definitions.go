package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

// LinkRepository defines storage operations for links.
// Create and Update return domain.ErrAliasTaken on a uniqueness violation;
// lookups return (nil, nil) when nothing matches.
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByShortCode(ctx context.Context, code string) (*domain.Link, error)
	FindByOriginalURL(ctx context.Context, originalURL string) (*domain.Link, error)
	Update(ctx context.Context, link *domain.Link) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error)
	Count(ctx context.Context, filters map[string]interface{}) (int64, error)
	Dump(ctx context.Context) ([]domain.Link, error) // For migration

	// Stats
	RecordVisit(ctx context.Context, visit *domain.Visit) (int64, error) // returns the new click count
	GetLinkStats(ctx context.Context, linkID string) (*domain.LinkStats, error)

	Ping(ctx context.Context) error
	Close() error
}

// UserRepository defines storage operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error // domain.ErrUserExists on conflict
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Repository is satisfied by each storage adapter.
type Repository interface {
	LinkRepository
	UserRepository
}

// TokenDenylist records revoked token ids until they expire on their own.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ContentTypeProber asks the remote server what a URL serves.
type ContentTypeProber interface {
	ContentType(ctx context.Context, rawURL string) (string, error)
}

// PreviewFetcher scrapes page metadata. It returns nil when the page could
// not be fetched or parsed.
type PreviewFetcher interface {
	Fetch(ctx context.Context, rawURL string) *domain.Preview
}

// CreateLinkInput carries the fields accepted when creating a link
type CreateLinkInput struct {
	OriginalURL string
	CustomAlias string
	ExpiresAt   *time.Time
	OwnerID     string
}

// UpdateLinkInput carries the optional fields of an update; nil means unchanged
type UpdateLinkInput struct {
	OriginalURL *string
	ExpiresAt   *time.Time
}

// ClickInfo describes the request that resolved a link
type ClickInfo struct {
	Referer   string
	UserAgent string
	IP        string
}

// LinkService defines the business logic operations
type LinkService interface {
	Create(ctx context.Context, in CreateLinkInput) (*domain.Link, error)
	Resolve(ctx context.Context, code string) (*domain.Link, error)
	RecordClick(ctx context.Context, link *domain.Link, click ClickInfo) (int64, error)
	Update(ctx context.Context, code, ownerID string, in UpdateLinkInput) (*domain.Link, error)
	Delete(ctx context.Context, code, ownerID string) error
	SearchByOriginalURL(ctx context.Context, originalURL string) (*domain.Link, error)
	ListLinks(ctx context.Context, ownerID string, page, limit int, search string) ([]domain.Link, int64, error)
	GetStats(ctx context.Context, code string) (*domain.LinkStats, error)
}

// AuthService defines registration, token issuance and verification
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	LoginWithGoogle(ctx context.Context, email string) (string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	TokenTTL() time.Duration
}
