package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockbot/types"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS tweets (
	id          TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	author      TEXT NOT NULL DEFAULT '',
	posted_at   TIMESTAMPTZ,
	source_url  TEXT NOT NULL DEFAULT '',
	ingested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS companies (
	id               BIGSERIAL PRIMARY KEY,
	ticker           TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	research_brief   TEXT NOT NULL DEFAULT '',
	sentiment        TEXT NOT NULL DEFAULT 'neutral',
	recent_mention   TEXT NOT NULL DEFAULT '',
	price            DOUBLE PRECISION,
	price_change     DOUBLE PRECISION,
	price_change_pct DOUBLE PRECISION,
	first_mentioned  TIMESTAMPTZ NOT NULL,
	last_updated     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS companies_last_updated_idx ON companies (last_updated DESC);

CREATE TABLE IF NOT EXISTS catalysts (
	id          BIGSERIAL PRIMARY KEY,
	company_id  BIGINT NOT NULL REFERENCES companies(id),
	tweet_id    TEXT NOT NULL REFERENCES tweets(id),
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	analysis    TEXT NOT NULL DEFAULT '',
	sentiment   TEXT NOT NULL DEFAULT 'neutral',
	detected_at TIMESTAMPTZ NOT NULL,
	UNIQUE (tweet_id, company_id)
);

CREATE INDEX IF NOT EXISTS catalysts_detected_at_idx ON catalysts (detected_at DESC);

CREATE TABLE IF NOT EXISTS digests (
	id             BIGSERIAL PRIMARY KEY,
	content        TEXT NOT NULL,
	stock_count    INTEGER NOT NULL,
	catalyst_count INTEGER NOT NULL,
	generated_at   TIMESTAMPTZ NOT NULL
);
`

// Connect opens a pooled connection to databaseURL and verifies it.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// NewPostgresStore returns the Store backed by db. Call Migrate first.
func NewPostgresStore(db *sql.DB) Store {
	return Store{
		Ledger:    &LedgerRepository{db: db},
		Companies: &CompanyRepository{db: db},
		Catalysts: &CatalystRepository{db: db},
		Digests:   &DigestRepository{db: db},
	}
}

type LedgerRepository struct {
	db *sql.DB
}

func (r *LedgerRepository) Has(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tweets WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *LedgerRepository) Insert(ctx context.Context, post types.Post) error {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tweets (id, text, author, posted_at, source_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`, post.ID, post.Text, post.Author, nullTime(post.PostedAt), post.SourceURL).Scan(&id)

	if err == sql.ErrNoRows {
		return types.ErrDuplicateKey
	}
	return err
}

func (r *LedgerRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tweets`).Scan(&n)
	return n, err
}

type CompanyRepository struct {
	db *sql.DB
}

const companyColumns = `id, ticker, name, research_brief, sentiment, recent_mention,
	price, price_change, price_change_pct, first_mentioned, last_updated`

func scanCompany(row interface{ Scan(...any) error }) (*types.Company, error) {
	var c types.Company
	err := row.Scan(&c.ID, &c.Ticker, &c.Name, &c.ResearchBrief, &c.Sentiment, &c.RecentMention,
		&c.Price, &c.PriceChange, &c.PriceChangePct, &c.FirstMentioned, &c.LastUpdated)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) Get(ctx context.Context, ticker string) (*types.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE ticker = $1`, strings.ToUpper(ticker)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Upsert is a single INSERT ... ON CONFLICT statement, so concurrent passes
// converge on the last write.
func (r *CompanyRepository) Upsert(ctx context.Context, ticker string, create types.CompanyCreate, update types.CompanyUpdate, now time.Time) (*types.Company, error) {
	sentiment := create.Sentiment
	if sentiment == "" {
		sentiment = types.SentimentNeutral
	}
	createPrice, createChange, createPct := quoteColumns(create.Quote)

	refresh := update.Refresh != nil
	var brief string
	var refreshPrice, refreshChange, refreshPct sql.NullFloat64
	if refresh {
		brief = update.Refresh.ResearchBrief
		refreshPrice, refreshChange, refreshPct = quoteColumns(update.Refresh.Quote)
	}

	return scanCompany(r.db.QueryRowContext(ctx, `
		INSERT INTO companies (ticker, name, research_brief, sentiment, recent_mention,
			price, price_change, price_change_pct, first_mentioned, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (ticker) DO UPDATE SET
			sentiment        = COALESCE(NULLIF($10::text, ''), companies.sentiment),
			recent_mention   = $11,
			research_brief   = CASE WHEN $12::boolean THEN $13 ELSE companies.research_brief END,
			price            = CASE WHEN $12::boolean THEN $14 ELSE companies.price END,
			price_change     = CASE WHEN $12::boolean THEN $15 ELSE companies.price_change END,
			price_change_pct = CASE WHEN $12::boolean THEN $16 ELSE companies.price_change_pct END,
			last_updated     = $9
		RETURNING `+companyColumns,
		strings.ToUpper(ticker), create.Name, create.ResearchBrief, string(sentiment), create.RecentMention,
		createPrice, createChange, createPct, now,
		string(update.Sentiment), update.RecentMention, refresh, brief, refreshPrice, refreshChange, refreshPct,
	))
}

func (r *CompanyRepository) List(ctx context.Context, limit int) ([]types.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY last_updated DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []types.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}
	return companies, rows.Err()
}

func (r *CompanyRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	return n, err
}

type CatalystRepository struct {
	db *sql.DB
}

func (r *CatalystRepository) Create(ctx context.Context, c *types.Catalyst) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO catalysts (company_id, tweet_id, type, description, analysis, sentiment, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tweet_id, company_id) DO NOTHING
		RETURNING id
	`, c.CompanyID, c.PostID, string(c.Type), c.Description, c.Analysis, string(c.Sentiment), c.DetectedAt).Scan(&c.ID)

	if err == sql.ErrNoRows {
		return types.ErrDuplicateKey
	}
	return err
}

func (r *CatalystRepository) List(ctx context.Context, limit int) ([]types.Catalyst, error) {
	query := `
		SELECT k.id, k.type, k.description, k.analysis, k.sentiment, k.detected_at,
			k.company_id, k.tweet_id, c.ticker, c.name
		FROM catalysts k
		JOIN companies c ON c.id = k.company_id
		ORDER BY k.detected_at DESC, k.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalysts []types.Catalyst
	for rows.Next() {
		var k types.Catalyst
		if err := rows.Scan(&k.ID, &k.Type, &k.Description, &k.Analysis, &k.Sentiment, &k.DetectedAt,
			&k.CompanyID, &k.PostID, &k.Ticker, &k.CompanyName); err != nil {
			return nil, err
		}
		catalysts = append(catalysts, k)
	}
	return catalysts, rows.Err()
}

func (r *CatalystRepository) CountSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalysts WHERE detected_at > $1`, t).Scan(&n)
	return n, err
}

type DigestRepository struct {
	db *sql.DB
}

func (r *DigestRepository) Create(ctx context.Context, d *types.Digest) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO digests (content, stock_count, catalyst_count, generated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, d.Content, d.StockCount, d.CatalystCount, d.GeneratedAt).Scan(&d.ID)
}

func (r *DigestRepository) Latest(ctx context.Context) (*types.Digest, error) {
	var d types.Digest
	err := r.db.QueryRowContext(ctx, `
		SELECT id, content, stock_count, catalyst_count, generated_at
		FROM digests
		ORDER BY generated_at DESC, id DESC
		LIMIT 1
	`).Scan(&d.ID, &d.Content, &d.StockCount, &d.CatalystCount, &d.GeneratedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DigestRepository) List(ctx context.Context, limit int) ([]types.Digest, error) {
	query := `SELECT id, content, stock_count, catalyst_count, generated_at FROM digests ORDER BY generated_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []types.Digest
	for rows.Next() {
		var d types.Digest
		if err := rows.Scan(&d.ID, &d.Content, &d.StockCount, &d.CatalystCount, &d.GeneratedAt); err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

func quoteColumns(q *types.Quote) (price, change, pct sql.NullFloat64) {
	if q == nil {
		return
	}
	return sql.NullFloat64{Float64: q.Price, Valid: true},
		sql.NullFloat64{Float64: q.Change, Valid: true},
		sql.NullFloat64{Float64: q.ChangePercent, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
