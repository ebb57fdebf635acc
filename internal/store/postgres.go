package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/shortener"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository and
// analytics.ClickRepository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts the link. The primary key on code turns a concurrent
// duplicate into ErrCodeTaken.
func (p *PostgresStore) Create(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (code, original_url, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.pool.Exec(ctx, query,
		string(link.Code),
		link.OriginalURL,
		nullableOwner(link.Owner),
		link.CreatedAt,
	)
	if isPgError(err, pgerrcode.UniqueViolation) {
		return shortener.ErrCodeTaken
	}

	return err
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `
		SELECT code, original_url, owner_id, created_at
		FROM links
		WHERE code = $1
	`

	link, err := scanLink(p.pool.QueryRow(ctx, query, string(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return link, nil
}

func (p *PostgresStore) ListByOwner(ctx context.Context, owner shortener.OwnerID) ([]shortener.Link, error) {
	if owner.Anonymous() {
		return []shortener.Link{}, nil
	}

	query := `
		SELECT code, original_url, owner_id, created_at
		FROM links
		WHERE owner_id = $1
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := p.pool.Query(ctx, query, string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []shortener.Link{}

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, *link)
	}

	return links, rows.Err()
}

func (p *PostgresStore) CodeExists(ctx context.Context, code shortener.Code) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE code = $1)`, string(code)).Scan(&exists)

	return exists, err
}

func (p *PostgresStore) SaveClick(ctx context.Context, click *analytics.ClickEvent) error {
	query := `
		INSERT INTO clicks (id, link_code, clicked_at, client_ip, user_agent, referrer)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		click.ID,
		string(click.Code),
		click.ClickedAt,
		click.ClientIP,
		click.UserAgent,
		click.Referrer,
	)
	if isPgError(err, pgerrcode.ForeignKeyViolation) {
		return shortener.ErrNotFound
	}

	return err
}

func (p *PostgresStore) RecentClicks(ctx context.Context, code shortener.Code, limit int) ([]analytics.ClickEvent, error) {
	query := `
		SELECT id::text, link_code, clicked_at, client_ip, user_agent, referrer
		FROM clicks
		WHERE link_code = $1
		ORDER BY clicked_at DESC, seq DESC
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, query, string(code), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clicks := []analytics.ClickEvent{}

	for rows.Next() {
		var (
			click analytics.ClickEvent
			code  string
		)

		if err := rows.Scan(&click.ID, &code, &click.ClickedAt, &click.ClientIP, &click.UserAgent, &click.Referrer); err != nil {
			return nil, err
		}

		click.Code = shortener.Code(code)
		click.ClickedAt = click.ClickedAt.UTC()
		clicks = append(clicks, click)
	}

	return clicks, rows.Err()
}

// DailyClickCounts groups the window's clicks by calendar date in one query.
func (p *PostgresStore) DailyClickCounts(
	ctx context.Context, code shortener.Code, from, to time.Time, loc *time.Location,
) (map[string]int, error) {
	query := `
		SELECT to_char(clicked_at AT TIME ZONE $4, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM clicks
		WHERE link_code = $1 AND clicked_at >= $2 AND clicked_at < $3
		GROUP BY day
	`

	rows, err := p.pool.Query(ctx, query, string(code), from, to, loc.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var (
			day   string
			count int64
		)

		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}

		counts[day] = int(count)
	}

	return counts, rows.Err()
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func scanLink(row pgx.Row) (*shortener.Link, error) {
	var (
		link  shortener.Link
		code  string
		owner *string
	)

	if err := row.Scan(&code, &link.OriginalURL, &owner, &link.CreatedAt); err != nil {
		return nil, err
	}

	link.Code = shortener.Code(code)
	if owner != nil {
		link.Owner = shortener.OwnerID(*owner)
	}

	link.CreatedAt = link.CreatedAt.UTC()

	return &link, nil
}

func nullableOwner(owner shortener.OwnerID) *string {
	if owner.Anonymous() {
		return nil
	}

	str := string(owner)

	return &str
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == code
}

// Compile-time checks.
var (
	_ shortener.Repository      = (*PostgresStore)(nil)
	_ analytics.ClickRepository = (*PostgresStore)(nil)
)
