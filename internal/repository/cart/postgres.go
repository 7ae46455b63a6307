package cart

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

const selectEntries = `
SELECT ci.id::text, ci.user_id::text, ci.product_id::text, ci.quantity, ci.options, ci.created_at, ci.updated_at,
       ` + productrepo.JoinedColumns + `
FROM cart_items ci
LEFT JOIN products p ON p.id = ci.product_id
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("cart_repo")}
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartEntry, error) {
	rows, err := r.pool.Query(ctx, selectEntries+`WHERE ci.user_id = $1 ORDER BY ci.created_at ASC, ci.id`, userID)
	if err != nil {
		r.logger.Error("list cart", zap.String("user_id", userID), zap.Error(err))
		return nil, db.Classify(err)
	}
	defer rows.Close()

	entries := []domain.CartEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, db.Classify(err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return entries, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.CartEntry, error) {
	id, ok := db.CanonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	e, err := scanEntry(r.pool.QueryRow(ctx, selectEntries+`WHERE ci.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return e, nil
}

func (r *postgresRepo) FindByUserProduct(ctx context.Context, userID, productRef string) (*domain.CartEntry, error) {
	idText := productRef
	if id, ok := db.CanonicalID(productRef); ok {
		idText = id
	}
	e, err := scanEntry(r.pool.QueryRow(ctx, selectEntries+`
WHERE ci.user_id = $1 AND (ci.product_id::text = $2 OR p.key = $3)
LIMIT 1`, userID, idText, productRef))
	if err != nil {
		return nil, db.Classify(err)
	}
	return e, nil
}

// AddOrIncrement is a single statement so concurrent adds of the same product both count.
func (r *postgresRepo) AddOrIncrement(ctx context.Context, userID, productID string, quantity int, options map[string]string) (*domain.CartEntry, error) {
	if options == nil {
		options = map[string]string{}
	}
	const q = `
INSERT INTO cart_items (user_id, product_id, quantity, options)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity,
    updated_at = now()
RETURNING id::text
`
	var id string
	if err := r.pool.QueryRow(ctx, q, userID, productID, quantity, options).Scan(&id); err != nil {
		r.logger.Error("add cart item", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		return nil, db.Classify(err)
	}
	r.logger.Debug("cart item added", zap.String("user_id", userID), zap.String("entry_id", id), zap.Int("quantity", quantity))
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $1, updated_at = now()
WHERE id = $2
`, quantity, id)
	if err != nil {
		return db.Classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("clear cart", zap.String("user_id", userID), zap.Error(err))
		return 0, db.Classify(err)
	}
	return cmd.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*domain.CartEntry, error) {
	var (
		e      domain.CartEntry
		joined productrepo.Joined
	)
	dest := append([]any{&e.ID, &e.UserID, &e.ProductID, &e.Quantity, &e.Options, &e.CreatedAt, &e.UpdatedAt}, joined.Dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Product = joined.Product()
	return &e, nil
}
