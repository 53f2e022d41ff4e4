package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/usermgmt/user-management-api/internal/api/metrics"
	"github.com/usermgmt/user-management-api/internal/core/domain"
)

const uniqueViolationCode = "23505"

// UserRepository persists users in Postgres. Transient connectivity faults
// are retried with a fixed backoff before surfacing; business-rule errors
// (duplicate email, no rows) pass through immediately.
type UserRepository struct {
	pool     *pgxpool.Pool
	attempts uint64
	backoff  time.Duration
}

func NewUserRepository(pool *pgxpool.Pool, attempts int, backoff time.Duration) *UserRepository {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &UserRepository{pool: pool, attempts: uint64(attempts), backoff: backoff}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := r.withRetry(ctx, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, username, password_hash, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			user.ID, user.Email, user.Username, user.PasswordHash, user.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, wrapStorageErr("insert user", err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.withRetry(ctx, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx,
			`SELECT id, email, username, password_hash, created_at
			 FROM users
			 WHERE lower(email) = lower($1)`,
			email,
		)
		return row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, wrapStorageErr("find user", err)
	}
	return &u, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, email, username, password_hash, created_at
			 FROM users
			 ORDER BY created_at, id`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		users = users[:0]
		for rows.Next() {
			var u domain.User
			if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapStorageErr("list users", err)
	}
	return users, nil
}

// withRetry runs op up to the configured attempt budget, backing off a fixed
// delay between attempts, but only for faults classified as transient.
func (r *UserRepository) withRetry(ctx context.Context, op func(context.Context) error) error {
	b := retry.WithMaxRetries(r.attempts-1, retry.NewConstant(r.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if err != nil && isTransient(err) {
			metrics.StorageRetriesTotal.Inc()
			return retry.RetryableError(err)
		}
		return err
	})
}

// isTransient classifies storage-connectivity faults worth retrying.
// Unique violations and empty result sets are business outcomes and are
// never retried.
func isTransient(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions.
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func wrapStorageErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
