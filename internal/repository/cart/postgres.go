package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"sneakerstore/internal/domain"
)

const returning = `RETURNING user_id::text, line_items, updated_at`

type postgresRepo struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, log zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, log: log.With().Str("repo", "cart").Logger()}
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT user_id::text, line_items, updated_at FROM carts WHERE user_id = $1`
	cart, err := scanCart(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Str("user_id", userID).Msg("get")
		return nil, err
	}
	return cart, nil
}

func (r *postgresRepo) AppendLineItem(ctx context.Context, userID string, item domain.CartLineItem) (*domain.Cart, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	payload, err := json.Marshal([]domain.CartLineItem{item})
	if err != nil {
		return nil, fmt.Errorf("encode line item: %w", err)
	}
	const q = `
INSERT INTO carts (user_id, line_items, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (user_id) DO UPDATE SET
    line_items = carts.line_items || EXCLUDED.line_items,
    updated_at = now()
` + returning
	cart, err := scanCart(r.pool.QueryRow(ctx, q, userID, payload))
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Str("product_id", item.ProductID).Msg("append line item")
		return nil, err
	}
	r.log.Debug().Str("user_id", userID).Str("line_item_id", item.ID).Int("lines", len(cart.LineItems)).Msg("appended line item")
	return cart, nil
}

func (r *postgresRepo) RemoveLineItem(ctx context.Context, userID, lineItemID string) (*domain.Cart, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
UPDATE carts
SET line_items = COALESCE((
        SELECT jsonb_agg(e ORDER BY ord)
        FROM jsonb_array_elements(line_items) WITH ORDINALITY AS t(e, ord)
        WHERE e->>'id' <> $2
    ), '[]'::jsonb),
    updated_at = now()
WHERE user_id = $1
` + returning
	cart, err := scanCart(r.pool.QueryRow(ctx, q, userID, lineItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Str("user_id", userID).Str("line_item_id", lineItemID).Msg("remove line item")
		return nil, err
	}
	r.log.Debug().Str("user_id", userID).Str("line_item_id", lineItemID).Int("lines", len(cart.LineItems)).Msg("removed line item")
	return cart, nil
}

func (r *postgresRepo) ClearLineItems(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET line_items = '[]'::jsonb, updated_at = now() WHERE user_id = $1`, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Msg("clear")
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var (
		cart domain.Cart
		raw  []byte
	)
	if err := row.Scan(&cart.UserID, &raw, &cart.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &cart.LineItems); err != nil {
		return nil, fmt.Errorf("decode line items for user %s: %w", cart.UserID, err)
	}
	if cart.LineItems == nil {
		cart.LineItems = []domain.CartLineItem{}
	}
	return &cart, nil
}
