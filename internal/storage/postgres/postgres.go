package postgres

import (
	"DormBiz/internal/config"
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeExclusionViolation  = "23P01"
)

type Storage struct {
	Pool *pgxpool.Pool
}

func ConnString(cfg config.Postgres) string {
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func NewPostgresPool(ctx context.Context, cfg config.Postgres) (*Storage, error) {
	pool, err := pgxpool.New(ctx, ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Storage{Pool: pool}, nil
}

func (p *Storage) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *Storage) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// UnwrapPgError returns the server error behind err, or nil.
func UnwrapPgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

func isCode(err error, code string) bool {
	pgErr := UnwrapPgError(err)
	return pgErr != nil && pgErr.Code == code
}
