package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	msqlite "modernc.org/sqlite"                         // Local SQLite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	dsn := dbURL
	if driverName == "sqlite" {
		dsn = withPragmas(dbURL)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// One connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func withPragmas(dbURL string) string {
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	return dbURL + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		short_code TEXT NOT NULL UNIQUE,
		custom_alias TEXT UNIQUE,
		original_url TEXT NOT NULL,
		user_id TEXT REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		click_count INTEGER NOT NULL DEFAULT 0,
		last_accessed DATETIME,
		expires_at DATETIME,
		preview JSON
	);
	CREATE INDEX IF NOT EXISTS idx_links_original_url ON links(original_url);
	CREATE INDEX IF NOT EXISTS idx_links_user_id ON links(user_id);

	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id TEXT NOT NULL,
		referer TEXT,
		user_agent TEXT,
		ip_hash TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(link_id) REFERENCES links(id)
	);
	CREATE INDEX IF NOT EXISTS idx_visits_link_id ON visits(link_id);
	`
	_, err := db.Exec(query)
	return err
}

// isUniqueViolation recognizes constraint failures from both the local
// driver (typed error) and libsql (message only).
func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func encodePreview(p *domain.Preview) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

const linkColumns = `id, short_code, custom_alias, original_url, user_id, created_at, click_count, last_accessed, expires_at, preview`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		link         domain.Link
		customAlias  sql.NullString
		userID       sql.NullString
		lastAccessed sql.NullTime
		expiresAt    sql.NullTime
		preview      sql.NullString
	)

	err := row.Scan(&link.ID, &link.ShortCode, &customAlias, &link.OriginalURL, &userID,
		&link.CreatedAt, &link.ClickCount, &lastAccessed, &expiresAt, &preview)
	if err != nil {
		return nil, err
	}

	link.CustomAlias = customAlias.String
	link.UserID = userID.String
	if lastAccessed.Valid {
		link.LastAccessed = &lastAccessed.Time
	}
	if expiresAt.Valid {
		link.ExpiresAt = &expiresAt.Time
	}
	if preview.Valid && preview.String != "" {
		var p domain.Preview
		if err := json.Unmarshal([]byte(preview.String), &p); err == nil {
			link.Preview = &p
		}
	}
	return &link, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (id, short_code, custom_alias, original_url, user_id, created_at, click_count, expires_at, preview)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	preview, err := encodePreview(link.Preview)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, link.ID, link.ShortCode, nullString(link.CustomAlias), link.OriginalURL,
		nullString(link.UserID), link.CreatedAt.UTC(), link.ClickCount, nullTime(link.ExpiresAt), preview)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAliasTaken, link.ShortCode)
		}
		return err
	}
	return nil
}

func (r *SQLiteRepository) GetByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = ?`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return link, err
}

func (r *SQLiteRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE original_url = ? ORDER BY created_at ASC, rowid ASC LIMIT 1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, originalURL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return link, err
}

func (r *SQLiteRepository) Update(ctx context.Context, link *domain.Link) error {
	query := `UPDATE links SET original_url = ?, expires_at = ?, preview = ? WHERE id = ?`

	preview, err := encodePreview(link.Preview)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, link.OriginalURL, nullTime(link.ExpiresAt), preview, link.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAliasTaken, link.ShortCode)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the link and its visit history.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM visits WHERE link_id = ?`, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}

func listWhere(filters map[string]interface{}) (string, []interface{}) {
	where := ` WHERE 1 = 1`
	args := []interface{}{}

	if userID, ok := filters["user_id"].(string); ok && userID != "" {
		where += " AND user_id = ?"
		args = append(args, userID)
	}
	if search, ok := filters["search"].(string); ok && search != "" {
		where += " AND (short_code LIKE ? OR original_url LIKE ?)"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	return where, args
}

func (r *SQLiteRepository) List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error) {
	where, args := listWhere(filters)
	query := `SELECT ` + linkColumns + ` FROM links` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *SQLiteRepository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	where, args := listWhere(filters)

	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`+where, args...).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// RecordVisit bumps the counter with a single atomic UPDATE and stores the
// visit in the same transaction.
func (r *SQLiteRepository) RecordVisit(ctx context.Context, visit *domain.Visit) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var count int64
	queryCount := `UPDATE links SET click_count = click_count + 1, last_accessed = ? WHERE id = ? RETURNING click_count`
	err = tx.QueryRowContext(ctx, queryCount, visit.CreatedAt.UTC(), visit.LinkID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	queryVisit := `INSERT INTO visits (link_id, referer, user_agent, ip_hash, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, queryVisit, visit.LinkID, visit.Referer, visit.UserAgent, visit.IPHash,
		visit.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	if id, err := res.LastInsertId(); err == nil {
		visit.ID = id
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SQLiteRepository) GetLinkStats(ctx context.Context, linkID string) (*domain.LinkStats, error) {
	stats := &domain.LinkStats{
		Referrers:   make(map[string]int64),
		DailyClicks: []domain.DailyClick{},
	}

	// Total Clicks
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits WHERE link_id = ?`, linkID).Scan(&stats.TotalClicks)
	if err != nil {
		return nil, err
	}

	// Referrers
	rows, err := r.db.QueryContext(ctx, `SELECT COALESCE(referer, ''), COUNT(*) as c FROM visits WHERE link_id = ? GROUP BY referer ORDER BY c DESC LIMIT 10`, linkID)
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

	// Daily Clicks (Last 30 days)
	rows2, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', created_at) as date, COUNT(*)
		FROM visits
		WHERE link_id = ?
		GROUP BY date
		ORDER BY date DESC
		LIMIT 30`, linkID)
	if err != nil {
		return nil, err
	}
	defer rows2.Close()
	for rows2.Next() {
		var dc domain.DailyClick
		if err := rows2.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		stats.DailyClicks = append(stats.DailyClicks, dc)
	}

	return stats, rows2.Err()
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ensure interface compliance
var _ ports.Repository = (*SQLiteRepository)(nil)
