package order

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

const selectColumns = `id::text, purchased_by::text, order_products, date_purchased, payment_method, payment_status, payment_id, total_amount`

type postgresRepo struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, log zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, log: log.With().Str("repo", "order").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, order domain.Order) (*domain.Order, error) {
	products := order.OrderProducts
	if products == nil {
		products = []domain.OrderLineItem{}
	}
	payload, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("encode order products: %w", err)
	}
	const q = `
INSERT INTO orders (purchased_by, order_products, payment_method, payment_status, payment_id, total_amount)
VALUES ($1, $2::jsonb, $3, $4, $5, $6)
RETURNING ` + selectColumns
	created, err := scanOrder(r.pool.QueryRow(ctx, q,
		order.PurchasedBy,
		payload,
		string(order.PaymentMethod),
		string(order.PaymentStatus),
		order.PaymentID,
		order.TotalAmount,
	))
	if err != nil {
		r.log.Error().Err(err).Str("user_id", order.PurchasedBy).Msg("create")
		return nil, err
	}
	r.log.Debug().Str("order_id", created.ID).Str("user_id", created.PurchasedBy).Msg("created")
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Str("order_id", id).Msg("get")
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []domain.Order{}, nil
	}
	const q = `SELECT ` + selectColumns + ` FROM orders WHERE purchased_by = $1 ORDER BY date_purchased DESC, id`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Msg("list by user")
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM orders ORDER BY date_purchased DESC, id`)
	if err != nil {
		r.log.Error().Err(err).Msg("list all")
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `UPDATE orders SET payment_status = $2 WHERE id = $1 RETURNING ` + selectColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Str("order_id", id).Msg("update payment status")
		return nil, err
	}
	r.log.Debug().Str("order_id", id).Str("payment_status", string(status)).Msg("payment status updated")
	return o, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o       domain.Order
		raw     []byte
		method  string
		status  string
		payment *string
	)
	if err := row.Scan(&o.ID, &o.PurchasedBy, &raw, &o.DatePurchased, &method, &status, &payment, &o.TotalAmount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &o.OrderProducts); err != nil {
		return nil, fmt.Errorf("decode order products for %s: %w", o.ID, err)
	}

	var err error
	if o.PaymentMethod, err = domain.ToPaymentMethod(method); err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	if o.PaymentStatus, err = domain.ToPaymentStatus(status); err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.PaymentID = payment
	return &o, nil
}

func collect(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}
