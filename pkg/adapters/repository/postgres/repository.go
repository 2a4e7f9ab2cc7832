package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

//go:embed migrations/0001_init.up.sql
var schema string

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects to dbURL and applies the schema.
func Open(ctx context.Context, dbURL string) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	repo := NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func encodePreview(p *domain.Preview) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

const linkColumns = `id, short_code, custom_alias, original_url, user_id, created_at, click_count, last_accessed, expires_at, preview`

func scanLink(row pgx.Row) (*domain.Link, error) {
	var (
		link        domain.Link
		customAlias *string
		userID      *string
		preview     []byte
	)

	err := row.Scan(&link.ID, &link.ShortCode, &customAlias, &link.OriginalURL, &userID,
		&link.CreatedAt, &link.ClickCount, &link.LastAccessed, &link.ExpiresAt, &preview)
	if err != nil {
		return nil, err
	}

	if customAlias != nil {
		link.CustomAlias = *customAlias
	}
	if userID != nil {
		link.UserID = *userID
	}
	if len(preview) > 0 {
		var p domain.Preview
		if err := json.Unmarshal(preview, &p); err == nil {
			link.Preview = &p
		}
	}
	return &link, nil
}

func (r *PostgresRepository) queryLink(ctx context.Context, query string, args ...any) (*domain.Link, error) {
	link, err := scanLink(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return link, err
}

func (r *PostgresRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO links (id, short_code, custom_alias, original_url, user_id, created_at, click_count, expires_at, preview)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	preview, err := encodePreview(link.Preview)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, link.ID, link.ShortCode, nullable(link.CustomAlias), link.OriginalURL,
		nullable(link.UserID), link.CreatedAt, link.ClickCount, link.ExpiresAt, preview)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAliasTaken, link.ShortCode)
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	return r.queryLink(ctx, `SELECT `+linkColumns+` FROM links WHERE short_code = $1`, code)
}

func (r *PostgresRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.Link, error) {
	return r.queryLink(ctx,
		`SELECT `+linkColumns+` FROM links WHERE original_url = $1 ORDER BY created_at ASC, id ASC LIMIT 1`,
		originalURL)
}

func (r *PostgresRepository) Update(ctx context.Context, link *domain.Link) error {
	preview, err := encodePreview(link.Preview)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `UPDATE links SET original_url = $1, expires_at = $2, preview = $3 WHERE id = $4`,
		link.OriginalURL, link.ExpiresAt, preview, link.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAliasTaken, link.ShortCode)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM visits WHERE link_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit(ctx)
}

func listWhere(filters map[string]interface{}) (string, []any) {
	where := ` WHERE 1 = 1`
	args := []any{}
	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if userID, ok := filters["user_id"].(string); ok && userID != "" {
		args = append(args, userID)
		where += " AND user_id = " + next()
	}
	if search, ok := filters["search"].(string); ok && search != "" {
		args = append(args, "%"+search+"%")
		where += " AND (short_code ILIKE " + next() + " OR original_url ILIKE " + next() + ")"
	}
	return where, args
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error) {
	where, args := listWhere(filters)
	query := fmt.Sprintf(`SELECT %s FROM links%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		linkColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	return r.queryLinks(ctx, query, args...)
}

func (r *PostgresRepository) queryLinks(ctx context.Context, query string, args ...any) ([]domain.Link, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

func (r *PostgresRepository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	where, args := listWhere(filters)

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM links`+where, args...).Scan(&count)
	return count, err
}

func (r *PostgresRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	return r.queryLinks(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at ASC`)
}

// RecordVisit increments the counter and stores the visit in one transaction.
// The row lock taken by the UPDATE serializes concurrent clicks.
func (r *PostgresRepository) RecordVisit(ctx context.Context, visit *domain.Visit) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var count int64
	err = tx.QueryRow(ctx,
		`UPDATE links SET click_count = click_count + 1, last_accessed = $1 WHERE id = $2 RETURNING click_count`,
		visit.CreatedAt, visit.LinkID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO visits (link_id, referer, user_agent, ip_hash, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		visit.LinkID, visit.Referer, visit.UserAgent, visit.IPHash, visit.CreatedAt).Scan(&visit.ID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) GetLinkStats(ctx context.Context, linkID string) (*domain.LinkStats, error) {
	stats := &domain.LinkStats{
		Referrers:   make(map[string]int64),
		DailyClicks: []domain.DailyClick{},
	}

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM visits WHERE link_id = $1`, linkID).Scan(&stats.TotalClicks)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(referer, ''), COUNT(*) AS c
		FROM visits
		WHERE link_id = $1
		GROUP BY referer
		ORDER BY c DESC
		LIMIT 10`, linkID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var ref string
		var count int64
		if err := rows.Scan(&ref, &count); err != nil {
			rows.Close()
			return nil, err
		}
		if ref == "" {
			ref = "Direct"
		}
		stats.Referrers[ref] += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	daily, err := r.db.Query(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS date, COUNT(*)
		FROM visits
		WHERE link_id = $1
		GROUP BY date
		ORDER BY date DESC
		LIMIT 30`, linkID)
	if err != nil {
		return nil, err
	}
	defer daily.Close()
	for daily.Next() {
		var dc domain.DailyClick
		if err := daily.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		stats.DailyClicks = append(stats.DailyClicks, dc)
	}

	return stats, daily.Err()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresRepository) Close() error {
	r.db.Close()
	return nil
}

var _ ports.Repository = (*PostgresRepository)(nil)
