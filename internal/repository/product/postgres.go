package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const columns = `id::text, COALESCE(key, ''), name, description, brand, price_cents, original_price_cents,
       images, category, subcategory, rating, review_count, in_stock, featured, deals, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product_repo")}
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Product, error) {
	if strings.TrimSpace(key) == "" {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + columns + ` FROM products WHERE key = $1`
	return r.getOne(ctx, "key", key, q, key)
}

// GetByID treats a malformed identifier as a miss rather than a query error.
func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	id, ok := db.CanonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + columns + ` FROM products WHERE id = $1`
	return r.getOne(ctx, "id", id, q, id)
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + columns + ` FROM products WHERE name = $1 ORDER BY created_at ASC LIMIT 1`
	return r.getOne(ctx, "name", name, q, name)
}

func (r *postgresRepo) getOne(ctx context.Context, field, value, q string, args ...any) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		err = db.Classify(err)
		if err == domain.ErrNotFound {
			r.logger.Debug("product not found", zap.String(field, value))
		} else {
			r.logger.Error("get product", zap.String(field, value), zap.Error(err))
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	where, args := filterClause(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		r.logger.Error("count products", zap.Error(err))
		return nil, 0, db.Classify(err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 12
	}
	args = append(args, limit, max(f.Offset, 0))
	q := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		columns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list products", zap.Error(err))
		return nil, 0, db.Classify(err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, db.Classify(err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list products rows", zap.Error(err))
		return nil, 0, db.Classify(err)
	}
	r.logger.Debug("listed products", zap.Int("count", len(result)), zap.Int("total", total))
	return result, total, nil
}

func filterClause(f domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR brand ILIKE $%d)", n, n, n))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		args = append(args, c)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Featured {
		conds = append(conds, "featured")
	}
	if f.Deals {
		conds = append(conds, "deals")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (key, name, description, brand, price_cents, original_price_cents, images,
                      category, subcategory, rating, review_count, in_stock, featured, deals)
VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + columns
	created, err := scanProduct(r.pool.QueryRow(ctx, q, writeArgs(p)...))
	if err != nil {
		r.logger.Error("create product", zap.String("key", p.Key), zap.Error(err))
		return nil, db.Classify(err)
	}
	r.logger.Info("created product", zap.String("id", created.ID), zap.String("key", created.Key))
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	id, ok := db.CanonicalID(p.ID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.ID = id
	q := `
UPDATE products
SET key = NULLIF($1, ''),
    name = $2,
    description = $3,
    brand = $4,
    price_cents = $5,
    original_price_cents = $6,
    images = $7,
    category = $8,
    subcategory = $9,
    rating = $10,
    review_count = $11,
    in_stock = $12,
    featured = $13,
    deals = $14,
    updated_at = now()
WHERE id = $15
RETURNING ` + columns
	args := append(writeArgs(p), p.ID)
	updated, err := scanProduct(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		r.logger.Error("update product", zap.String("id", p.ID), zap.Error(err))
		return nil, db.Classify(err)
	}
	return updated, nil
}

// Upsert inserts or replaces a product keyed by its business identifier.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(p.Key) == "" {
		return nil, fmt.Errorf("product repo: upsert requires a key")
	}
	q := `
INSERT INTO products (key, name, description, brand, price_cents, original_price_cents, images,
                      category, subcategory, rating, review_count, in_stock, featured, deals)
VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (key) WHERE key IS NOT NULL DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    brand = EXCLUDED.brand,
    price_cents = EXCLUDED.price_cents,
    original_price_cents = EXCLUDED.original_price_cents,
    images = EXCLUDED.images,
    category = EXCLUDED.category,
    subcategory = EXCLUDED.subcategory,
    rating = EXCLUDED.rating,
    review_count = EXCLUDED.review_count,
    in_stock = EXCLUDED.in_stock,
    featured = EXCLUDED.featured,
    deals = EXCLUDED.deals,
    updated_at = now()
RETURNING ` + columns
	res, err := scanProduct(r.pool.QueryRow(ctx, q, writeArgs(p)...))
	if err != nil {
		r.logger.Error("upsert product", zap.String("key", p.Key), zap.Error(err))
		return nil, db.Classify(err)
	}
	r.logger.Debug("upserted product", zap.String("key", res.Key), zap.String("id", res.ID))
	return res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	id, ok := db.CanonicalID(id)
	if !ok {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("delete product", zap.String("id", id), zap.Error(err))
		return db.Classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func writeArgs(p domain.Product) []any {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	var key *string
	if k := strings.TrimSpace(p.Key); k != "" {
		key = &k
	}
	return []any{
		key,
		p.Name,
		p.Description,
		p.Brand,
		centsOrNil(p.Price),
		centsOrNil(p.OriginalPrice),
		images,
		p.Category,
		p.Subcategory,
		p.Rating,
		p.ReviewCount,
		p.InStock,
		p.Featured,
		p.Deals,
	}
}

func centsOrNil(d decimal.NullDecimal) *int64 {
	if !d.Valid {
		return nil
	}
	c := domain.Cents(d.Decimal)
	return &c
}

func nullFromCents(c *int64) decimal.NullDecimal {
	if c == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(domain.FromCents(*c))
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p           domain.Product
		price, orig *int64
	)
	if err := row.Scan(
		&p.ID,
		&p.Key,
		&p.Name,
		&p.Description,
		&p.Brand,
		&price,
		&orig,
		&p.Images,
		&p.Category,
		&p.Subcategory,
		&p.Rating,
		&p.ReviewCount,
		&p.InStock,
		&p.Featured,
		&p.Deals,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Price = nullFromCents(price)
	p.OriginalPrice = nullFromCents(orig)
	return &p, nil
}
