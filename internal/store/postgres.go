package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/cartclash/internal/db"
	"github.com/sells-group/cartclash/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlLatestObservations = `SELECT id, source, price::text, url, is_available, observed_at
FROM (
	SELECT o.id, o.source, o.price, o.url, o.is_available, o.observed_at,
	       ROW_NUMBER() OVER (PARTITION BY o.source ORDER BY o.observed_at DESC, o.id ASC) AS rn
	FROM price_observations o
	WHERE o.product_id = $1
) ranked
WHERE rn = 1
ORDER BY id`
	sqlProductExists = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
	sqlAddWatch      = `INSERT INTO watchlist_items (user_id, product_id, source, added_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, product_id, source) DO NOTHING`
	sqlRemoveWatch = `DELETE FROM watchlist_items WHERE user_id = $1 AND product_id = $2 AND source = $3`
	sqlGetSession  = `SELECT token, user_id, logged_in FROM sessions WHERE token = $1`
)

// preparedStatements lists queries to prepare on each new connection for
// the per-request hot paths.
var preparedStatements = map[string]string{
	"latest_observations": sqlLatestObservations,
	"product_exists":      sqlProductExists,
	"add_watch":           sqlAddWatch,
	"remove_watch":        sqlRemoveWatch,
	"get_session":         sqlGetSession,
}

var productColumns = []string{"id", "name", "description", "image_url"}

var observationColumns = []string{"product_id", "source", "price", "url", "is_available", "observed_at"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	id          BIGINT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image_url   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS price_observations (
	id           BIGSERIAL PRIMARY KEY,
	product_id   BIGINT NOT NULL REFERENCES products(id),
	source       VARCHAR(50) NOT NULL,
	price        NUMERIC(12, 2),
	url          TEXT,
	is_available BOOLEAN NOT NULL DEFAULT true,
	observed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_observations_latest
	ON price_observations(product_id, source, observed_at DESC, id);

CREATE TABLE IF NOT EXISTS watchlist_items (
	user_id    BIGINT NOT NULL,
	product_id BIGINT NOT NULL REFERENCES products(id),
	source     VARCHAR(50) NOT NULL,
	added_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, product_id, source)
);

CREATE INDEX IF NOT EXISTS idx_watchlist_items_user_added ON watchlist_items(user_id, added_at DESC);

CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	user_id    BIGINT,
	logged_in  BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, limit int) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, image_url, created_at FROM products ORDER BY id ASC LIMIT $1`,
		productLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, sqlProductExists, productID).Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "postgres: product exists %d", productID)
	}
	return exists, nil
}

func (s *PostgresStore) UpsertProducts(ctx context.Context, products []model.Product) (int64, error) {
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{p.ID, p.Name, p.Description, p.ImageURL})
	}
	n, err := db.UpsertByKey(ctx, s.pool, "products", "id", productColumns, rows)
	return n, eris.Wrap(err, "postgres: upsert products")
}

func (s *PostgresStore) AddObservations(ctx context.Context, obs []model.PriceObservation) (int64, error) {
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		observedAt := o.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now().UTC()
		}
		rows = append(rows, []any{o.ProductID, o.Source, numericArg(o.Price), o.URL, o.IsAvailable, observedAt})
	}
	n, err := db.CopyFrom(ctx, s.pool, "price_observations", observationColumns, rows)
	return n, eris.Wrap(err, "postgres: add observations")
}

func (s *PostgresStore) LatestObservations(ctx context.Context, productID int64) ([]model.PriceObservation, error) {
	rows, err := s.pool.Query(ctx, sqlLatestObservations, productID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest observations %d", productID)
	}
	defer rows.Close()

	var out []model.PriceObservation
	for rows.Next() {
		o := model.PriceObservation{ProductID: productID}
		var price, url pgtype.Text
		if err := rows.Scan(&o.ID, &o.Source, &price, &url, &o.IsAvailable, &o.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		if o.Price, err = parsePrice(price.String, price.Valid); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse price of observation %d", o.ID)
		}
		if url.Valid {
			u := url.String
			o.URL = &u
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: latest observations iterate")
}

func (s *PostgresStore) AddWatch(ctx context.Context, entry model.WatchlistEntry) (bool, error) {
	tag, err := s.pool.Exec(ctx, sqlAddWatch, entry.UserID, entry.ProductID, entry.Source, entry.AddedAt)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: add watch user=%d product=%d", entry.UserID, entry.ProductID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) RemoveWatch(ctx context.Context, userID, productID int64, source string) (bool, error) {
	tag, err := s.pool.Exec(ctx, sqlRemoveWatch, userID, productID, source)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: remove watch user=%d product=%d", userID, productID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListWatchlist(ctx context.Context, userID int64) ([]model.WatchlistEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, product_id, source, added_at FROM watchlist_items WHERE user_id = $1 ORDER BY added_at DESC, product_id, source`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list watchlist %d", userID)
	}
	defer rows.Close()

	var entries []model.WatchlistEntry
	for rows.Next() {
		var e model.WatchlistEntry
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.Source, &e.AddedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan watchlist entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list watchlist iterate")
}

func (s *PostgresStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session
	var userID pgtype.Int8
	err := s.pool.QueryRow(ctx, sqlGetSession, token).Scan(&sess.Token, &userID, &sess.LoggedIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get session")
	}
	if userID.Valid {
		id := userID.Int64
		sess.UserID = &id
	}
	return &sess, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess model.Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, logged_in) VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO UPDATE SET user_id = $2, logged_in = $3`,
		sess.Token, sess.UserID, sess.LoggedIn,
	)
	return eris.Wrap(err, "postgres: save session")
}

func numericArg(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func parsePrice(s string, valid bool) (*decimal.Decimal, error) {
	if !valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
