package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"sneakerstore/internal/domain"
)

const selectColumns = `id::text, email, is_admin, top_picks, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, log zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, log: log.With().Str("repo", "user").Logger()}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Str("user_id", id).Msg("get")
		return nil, err
	}
	return u, nil
}

func (r *postgresRepo) AppendTopPicks(ctx context.Context, id string, brands []string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	if len(brands) == 0 {
		return nil
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET top_picks = top_picks || $2::text[] WHERE id = $1`, id, brands)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", id).Msg("append top picks")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.log.Debug().Str("user_id", id).Strs("brands", brands).Msg("appended top picks")
	return nil
}

func (r *postgresRepo) Upsert(ctx context.Context, user domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, is_admin)
VALUES ($1, $2)
ON CONFLICT (email) DO UPDATE SET is_admin = EXCLUDED.is_admin
RETURNING ` + selectColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, user.Email, user.IsAdmin))
	if err != nil {
		r.log.Error().Err(err).Str("email", user.Email).Msg("upsert")
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.IsAdmin, &u.TopPicks, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
