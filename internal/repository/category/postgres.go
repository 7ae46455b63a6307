package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// ListNames returns distinct non-empty categories ordered by first appearance in the catalog.
func (r *postgresRepo) ListNames(ctx context.Context) ([]string, error) {
	const q = `
SELECT category
FROM products
WHERE category <> ''
GROUP BY category
ORDER BY MIN(created_at) ASC, category ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, db.Classify(err)
		}
		result = append(result, name)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return result, nil
}
