package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"venue-crawler/models"
	"venue-crawler/utils"
)

var ErrUnknownDriver = errors.New("storage: unknown sql driver")

const batchSize = 50

type dialect struct {
	placeholder func(n int) string
	schema      []string
	upsert      string
}

func dollar(n int) string { return fmt.Sprintf("$%d", n) }
func question(int) string { return "?" }

var dialects = map[string]dialect{
	"postgres": {
		placeholder: dollar,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS sites (
				id          SERIAL PRIMARY KEY,
				name        TEXT             UNIQUE NOT NULL,
				location    TEXT             NOT NULL DEFAULT '',
				price       TEXT             NOT NULL DEFAULT '',
				capacity    TEXT             NOT NULL DEFAULT '',
				rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
				reviews     INTEGER          NOT NULL DEFAULT 0,
				description TEXT             NOT NULL DEFAULT '',
				created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sites_location ON sites(location)`,
			`CREATE INDEX IF NOT EXISTS idx_sites_rating   ON sites(rating)`,
		},
		upsert: `ON CONFLICT (name) DO UPDATE SET
			location = EXCLUDED.location, price = EXCLUDED.price, capacity = EXCLUDED.capacity,
			rating = EXCLUDED.rating, reviews = EXCLUDED.reviews, description = EXCLUDED.description`,
	},
	"sqlite": {
		placeholder: question,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS sites (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				name        TEXT    NOT NULL UNIQUE,
				location    TEXT    NOT NULL DEFAULT '',
				price       TEXT    NOT NULL DEFAULT '',
				capacity    TEXT    NOT NULL DEFAULT '',
				rating      REAL    NOT NULL DEFAULT 0,
				reviews     INTEGER NOT NULL DEFAULT 0,
				description TEXT    NOT NULL DEFAULT '',
				created_at  TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sites_location ON sites(location)`,
			`CREATE INDEX IF NOT EXISTS idx_sites_rating   ON sites(rating)`,
		},
		upsert: `ON CONFLICT(name) DO UPDATE SET
			location = excluded.location, price = excluded.price, capacity = excluded.capacity,
			rating = excluded.rating, reviews = excluded.reviews, description = excluded.description`,
	},
	"mysql": {
		placeholder: question,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS sites (
				id          BIGINT AUTO_INCREMENT PRIMARY KEY,
				name        VARCHAR(255) NOT NULL UNIQUE,
				location    VARCHAR(255) NOT NULL DEFAULT '',
				price       VARCHAR(255) NOT NULL DEFAULT '',
				capacity    VARCHAR(255) NOT NULL DEFAULT '',
				rating      DOUBLE       NOT NULL DEFAULT 0,
				reviews     INT          NOT NULL DEFAULT 0,
				description TEXT         NOT NULL,
				created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_sites_location (location),
				INDEX idx_sites_rating (rating)
			)`,
		},
		upsert: `ON DUPLICATE KEY UPDATE
			location = VALUES(location), price = VALUES(price), capacity = VALUES(capacity),
			rating = VALUES(rating), reviews = VALUES(reviews), description = VALUES(description)`,
	},
}

// SQLWriter upserts accepted sites into a "sites" table keyed by name.
type SQLWriter struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

// NewSQLWriter opens a connection with the given driver ("postgres",
// "sqlite" or "mysql"), waits for it to answer, runs schema migrations, and
// returns a ready-to-use SQLWriter.
func NewSQLWriter(ctx context.Context, driver, dsn string, logger *utils.Logger, retry *utils.RetryConfig) (*SQLWriter, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: postgres, sqlite, mysql)", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}

	if err := retry.Do(ctx, driver+"-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", driver, err)
	}

	w := &SQLWriter{db: db, dialect: d, logger: logger}
	if err := w.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", driver, err)
	}
	return w, nil
}

func (w *SQLWriter) migrate(ctx context.Context) error {
	for _, stmt := range w.dialect.schema {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Write upserts all sites in batches inside one transaction.
func (w *SQLWriter) Write(ctx context.Context, sites []models.Site) error {
	if len(sites) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sql: begin: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < len(sites); i += batchSize {
		end := i + batchSize
		if end > len(sites) {
			end = len(sites)
		}
		if err := w.insertBatch(ctx, tx, sites[i:end]); err != nil {
			return fmt.Errorf("sql: insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sql: commit: %w", err)
	}
	w.logger.Info("[sql] Stored %d sites", len(sites))
	return nil
}

func (w *SQLWriter) insertBatch(ctx context.Context, tx *sql.Tx, batch []models.Site) error {
	const cols = 7
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, s := range batch {
		ph := make([]string, cols)
		for c := 0; c < cols; c++ {
			ph[c] = w.dialect.placeholder(idx*cols + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			s.Name, s.Location, s.Price, s.Capacity, s.Rating, s.Reviews, s.Description)
	}

	query := fmt.Sprintf(`
		INSERT INTO sites (name, location, price, capacity, rating, reviews, description)
		VALUES %s
		%s
	`, strings.Join(valueStrings, ","), w.dialect.upsert)

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// FetchAll retrieves all stored sites in insertion order.
func (w *SQLWriter) FetchAll(ctx context.Context) ([]models.Site, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT name, location, price, capacity, rating, reviews, description
		FROM sites
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("sql: fetch all: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(
			&s.Name, &s.Location, &s.Price, &s.Capacity, &s.Rating, &s.Reviews, &s.Description,
		); err != nil {
			return nil, fmt.Errorf("sql: scan row: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}
