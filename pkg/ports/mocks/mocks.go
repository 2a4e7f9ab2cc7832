package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type MockLinkRepository struct {
	mock.Mock
}

var _ ports.LinkRepository = (*MockLinkRepository)(nil)

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.Link, error) {
	args := m.Called(ctx, originalURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) Update(ctx context.Context, link *domain.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLinkRepository) List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error) {
	args := m.Called(ctx, limit, offset, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Link), args.Error(1)
}

func (m *MockLinkRepository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Link), args.Error(1)
}

func (m *MockLinkRepository) RecordVisit(ctx context.Context, visit *domain.Visit) (int64, error) {
	args := m.Called(ctx, visit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkRepository) GetLinkStats(ctx context.Context, linkID string) (*domain.LinkStats, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkStats), args.Error(1)
}

func (m *MockLinkRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLinkRepository) Close() error {
	return m.Called().Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) getUser(method string, ctx context.Context, key string) (*domain.User, error) {
	args := m.MethodCalled(method, ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return m.getUser("GetUserByID", ctx, id)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.getUser("GetUserByUsername", ctx, username)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getUser("GetUserByEmail", ctx, email)
}

type MockTokenDenylist struct {
	mock.Mock
}

var _ ports.TokenDenylist = (*MockTokenDenylist)(nil)

func (m *MockTokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return m.Called(ctx, jti, ttl).Error(0)
}

func (m *MockTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type MockContentTypeProber struct {
	mock.Mock
}

var _ ports.ContentTypeProber = (*MockContentTypeProber)(nil)

func (m *MockContentTypeProber) ContentType(ctx context.Context, rawURL string) (string, error) {
	args := m.Called(ctx, rawURL)
	return args.String(0), args.Error(1)
}

type MockPreviewFetcher struct {
	mock.Mock
}

var _ ports.PreviewFetcher = (*MockPreviewFetcher)(nil)

func (m *MockPreviewFetcher) Fetch(ctx context.Context, rawURL string) *domain.Preview {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.Preview)
}

type MockAuthService struct {
	mock.Mock
}

var _ ports.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) LoginWithGoogle(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) TokenTTL() time.Duration {
	return m.Called().Get(0).(time.Duration)
}

type MockLinkService struct {
	mock.Mock
}

var _ ports.LinkService = (*MockLinkService)(nil)

func (m *MockLinkService) link(args mock.Arguments) (*domain.Link, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) Create(ctx context.Context, in ports.CreateLinkInput) (*domain.Link, error) {
	return m.link(m.Called(ctx, in))
}

func (m *MockLinkService) Resolve(ctx context.Context, code string) (*domain.Link, error) {
	return m.link(m.Called(ctx, code))
}

func (m *MockLinkService) RecordClick(ctx context.Context, link *domain.Link, click ports.ClickInfo) (int64, error) {
	args := m.Called(ctx, link, click)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkService) Update(ctx context.Context, code, ownerID string, in ports.UpdateLinkInput) (*domain.Link, error) {
	return m.link(m.Called(ctx, code, ownerID, in))
}

func (m *MockLinkService) Delete(ctx context.Context, code, ownerID string) error {
	return m.Called(ctx, code, ownerID).Error(0)
}

func (m *MockLinkService) SearchByOriginalURL(ctx context.Context, originalURL string) (*domain.Link, error) {
	return m.link(m.Called(ctx, originalURL))
}

func (m *MockLinkService) ListLinks(ctx context.Context, ownerID string, page, limit int, search string) ([]domain.Link, int64, error) {
	args := m.Called(ctx, ownerID, page, limit, search)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Link), args.Get(1).(int64), args.Error(2)
}

func (m *MockLinkService) GetStats(ctx context.Context, code string) (*domain.LinkStats, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkStats), args.Error(1)
}
