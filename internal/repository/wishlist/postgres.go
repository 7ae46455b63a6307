package wishlist

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
SELECT wi.id::text, wi.user_id::text, wi.product_id::text, wi.created_at,
       ` + productrepo.JoinedColumns + `
FROM wishlist_items wi
LEFT JOIN products p ON p.id = wi.product_id
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("wishlist_repo")}
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	rows, err := r.pool.Query(ctx, selectEntries+`WHERE wi.user_id = $1 ORDER BY wi.created_at ASC, wi.id`, userID)
	if err != nil {
		r.logger.Error("list wishlist", zap.String("user_id", userID), zap.Error(err))
		return nil, db.Classify(err)
	}
	defer rows.Close()

	entries := []domain.WishlistEntry{}
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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.WishlistEntry, error) {
	id, ok := db.CanonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	e, err := scanEntry(r.pool.QueryRow(ctx, selectEntries+`WHERE wi.id = $1`, id))
	if err != nil {
		return nil, db.Classify(err)
	}
	return e, nil
}

func (r *postgresRepo) FindByUserProduct(ctx context.Context, userID, productRef string) (*domain.WishlistEntry, error) {
	idText := productRef
	if id, ok := db.CanonicalID(productRef); ok {
		idText = id
	}
	e, err := scanEntry(r.pool.QueryRow(ctx, selectEntries+`
WHERE wi.user_id = $1 AND (wi.product_id::text = $2 OR p.key = $3)
LIMIT 1`, userID, idText, productRef))
	if err != nil {
		return nil, db.Classify(err)
	}
	return e, nil
}

func (r *postgresRepo) Create(ctx context.Context, userID, productID string) (*domain.WishlistEntry, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
INSERT INTO wishlist_items (user_id, product_id)
VALUES ($1, $2)
RETURNING id::text
`, userID, productID).Scan(&id)
	if err != nil {
		err = db.Classify(err)
		if err != domain.ErrAlreadyExists {
			r.logger.Error("add wishlist item", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM wishlist_items WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, db.Classify(err)
	}
	return cmd.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*domain.WishlistEntry, error) {
	var (
		e      domain.WishlistEntry
		joined productrepo.Joined
	)
	dest := append([]any{&e.ID, &e.UserID, &e.ProductID, &e.CreatedAt}, joined.Dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Product = joined.Product()
	return &e, nil
}
