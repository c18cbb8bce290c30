package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"sneakerstore/internal/domain"
)

const selectColumns = `id::text, name, brand, price, colors, sizes, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, log zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, log: log.With().Str("repo", "product").Logger()}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	const q = `SELECT ` + selectColumns + ` FROM products ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.log.Error().Err(err).Msg("list")
		return nil, err
	}
	result, err := collect(rows)
	if err != nil {
		r.log.Error().Err(err).Msg("list rows")
		return nil, err
	}
	r.log.Debug().Int("count", len(result)).Msg("list")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT ` + selectColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Debug().Str("id", id).Msg("get: not found")
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Str("id", id).Msg("get")
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns the products that exist among ids; unknown or malformed
// ids are skipped.
func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	valid := lo.Filter(lo.Uniq(ids), func(id string, _ int) bool {
		_, err := uuid.Parse(id)
		return err == nil
	})
	if len(valid) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + selectColumns + ` FROM products WHERE id = ANY($1::uuid[])`
	rows, err := r.pool.Query(ctx, q, valid)
	if err != nil {
		r.log.Error().Err(err).Strs("ids", valid).Msg("get many")
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) DecrementSizes(ctx context.Context, id string, sizes []float64) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
UPDATE products
SET sizes = ARRAY(SELECT s FROM unnest(sizes) AS s WHERE s <> ALL($2::double precision[]))
WHERE id = $1
RETURNING ` + selectColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id, sizes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Str("id", id).Msg("decrement sizes")
		return nil, err
	}
	r.log.Debug().Str("id", id).Floats64("sizes", sizes).Floats64("remaining", p.Sizes).Msg("decremented sizes")
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, name, brand, price, colors, sizes)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    brand = EXCLUDED.brand,
    price = EXCLUDED.price,
    colors = EXCLUDED.colors,
    sizes = EXCLUDED.sizes
RETURNING ` + selectColumns
	colors := product.Colors
	if colors == nil {
		colors = []string{}
	}
	sizes := product.Sizes
	if sizes == nil {
		sizes = []float64{}
	}
	res, err := scanProduct(r.pool.QueryRow(ctx, q, product.ID, product.Name, product.Brand, product.Price, colors, sizes))
	if err != nil {
		r.log.Error().Err(err).Str("name", product.Name).Msg("upsert")
		return nil, err
	}
	r.log.Debug().Str("id", res.ID).Str("name", res.Name).Msg("upserted")
	return &res, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.Colors, &p.Sizes, &p.CreatedAt)
	return p, err
}

func collect(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
