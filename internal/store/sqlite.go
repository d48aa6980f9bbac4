package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/cartclash/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Timestamps are
// stored as unix nanoseconds so ordering is exact.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS products (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image_url   TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS price_observations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id   INTEGER NOT NULL REFERENCES products(id),
	source       TEXT NOT NULL,
	price        TEXT,
	url          TEXT,
	is_available INTEGER NOT NULL DEFAULT 1,
	observed_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_observations_latest
	ON price_observations(product_id, source, observed_at);

CREATE TABLE IF NOT EXISTS watchlist_items (
	user_id    INTEGER NOT NULL,
	product_id INTEGER NOT NULL REFERENCES products(id),
	source     TEXT NOT NULL,
	added_at   INTEGER NOT NULL,
	PRIMARY KEY (user_id, product_id, source)
);

CREATE TABLE IF NOT EXISTS sessions (
	token     TEXT PRIMARY KEY,
	user_id   INTEGER,
	logged_in INTEGER NOT NULL DEFAULT 0
);
`

// sqliteLatestObservations keeps, per source, the row with no newer
// observation and no earlier-inserted row at the same instant.
const sqliteLatestObservations = `SELECT o.id, o.source, o.price, o.url, o.is_available, o.observed_at
FROM price_observations o
WHERE o.product_id = ?
  AND NOT EXISTS (
	SELECT 1 FROM price_observations n
	WHERE n.product_id = o.product_id
	  AND n.source = o.source
	  AND (n.observed_at > o.observed_at OR (n.observed_at = o.observed_at AND n.id < o.id))
  )
ORDER BY o.id`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListProducts(ctx context.Context, limit int) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, image_url, created_at FROM products ORDER BY id ASC LIMIT ?`,
		productLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close() //nolint:errcheck

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		p.CreatedAt = fromNanos(createdAt)
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list products iterate")
}

func (s *SQLiteStore) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = ?)`, productID).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: product exists %d", productID)
	}
	return exists, nil
}

func (s *SQLiteStore) UpsertProducts(ctx context.Context, products []model.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert products")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC().UnixNano()
	var n int64
	for _, p := range products {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, name, description, image_url, created_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET name = excluded.name, description = excluded.description, image_url = excluded.image_url`,
			p.ID, p.Name, p.Description, p.ImageURL, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert product %d", p.ID)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert product %d: rows affected", p.ID)
		}
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert products")
	}
	return n, nil
}

func (s *SQLiteStore) AddObservations(ctx context.Context, obs []model.PriceObservation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin add observations")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO price_observations (product_id, source, price, url, is_available, observed_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare add observation")
	}
	defer stmt.Close() //nolint:errcheck

	for _, o := range obs {
		observedAt := o.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, o.ProductID, o.Source, priceArg(o.Price), o.URL, o.IsAvailable, observedAt.UnixNano()); err != nil {
			return 0, eris.Wrapf(err, "sqlite: add observation product=%d source=%s", o.ProductID, o.Source)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit add observations")
	}
	return int64(len(obs)), nil
}

func (s *SQLiteStore) LatestObservations(ctx context.Context, productID int64) ([]model.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, sqliteLatestObservations, productID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest observations %d", productID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PriceObservation
	for rows.Next() {
		o := model.PriceObservation{ProductID: productID}
		var price, url sql.NullString
		var observedAt int64
		if err := rows.Scan(&o.ID, &o.Source, &price, &url, &o.IsAvailable, &observedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		if o.Price, err = parsePrice(price.String, price.Valid); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse price of observation %d", o.ID)
		}
		if url.Valid {
			u := url.String
			o.URL = &u
		}
		o.ObservedAt = fromNanos(observedAt)
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: latest observations iterate")
}

func (s *SQLiteStore) AddWatch(ctx context.Context, entry model.WatchlistEntry) (bool, error) {
	addedAt := entry.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO watchlist_items (user_id, product_id, source, added_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, product_id, source) DO NOTHING`,
		entry.UserID, entry.ProductID, entry.Source, addedAt.UnixNano(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: add watch user=%d product=%d", entry.UserID, entry.ProductID)
	}
	return changed(res)
}

func (s *SQLiteStore) RemoveWatch(ctx context.Context, userID, productID int64, source string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM watchlist_items WHERE user_id = ? AND product_id = ? AND source = ?`,
		userID, productID, source,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: remove watch user=%d product=%d", userID, productID)
	}
	return changed(res)
}

func (s *SQLiteStore) ListWatchlist(ctx context.Context, userID int64) ([]model.WatchlistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, product_id, source, added_at FROM watchlist_items WHERE user_id = ? ORDER BY added_at DESC, product_id, source`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list watchlist %d", userID)
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.WatchlistEntry
	for rows.Next() {
		var e model.WatchlistEntry
		var addedAt int64
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.Source, &addedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan watchlist entry")
		}
		e.AddedAt = fromNanos(addedAt)
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list watchlist iterate")
}

func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session
	var userID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, logged_in FROM sessions WHERE token = ?`, token,
	).Scan(&sess.Token, &userID, &sess.LoggedIn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get session")
	}
	if userID.Valid {
		id := userID.Int64
		sess.UserID = &id
	}
	return &sess, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess model.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, logged_in) VALUES (?, ?, ?)
		 ON CONFLICT (token) DO UPDATE SET user_id = excluded.user_id, logged_in = excluded.logged_in`,
		sess.Token, sess.UserID, sess.LoggedIn,
	)
	return eris.Wrap(err, "sqlite: save session")
}

func changed(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func priceArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
