package cart

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func TestPostgres_AddMergesQuantity(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := insertUser(ctx, t, pool, "u1")
	productID := insertProduct(ctx, t, pool, "p1", 1000)

	repo := NewPostgres(pool, nil)
	first, err := repo.AddOrIncrement(ctx, userID, productID, 2, map[string]string{"size": "M"})
	if err != nil {
		t.Fatalf("AddOrIncrement: %v", err)
	}
	second, err := repo.AddOrIncrement(ctx, userID, productID, 3, nil)
	if err != nil {
		t.Fatalf("AddOrIncrement merge: %v", err)
	}
	if second.ID != first.ID || second.Quantity != 5 {
		t.Fatalf("expected merged entry with quantity 5, got %+v", second)
	}
	if second.Options["size"] != "M" {
		t.Fatalf("expected options kept, got %v", second.Options)
	}
	if second.Product == nil || second.Product.Key != "p1" || !second.Product.Price.Valid {
		t.Fatalf("expected joined product, got %+v", second.Product)
	}

	byRef, err := repo.FindByUserProduct(ctx, userID, "p1")
	if err != nil || byRef.ID != first.ID {
		t.Fatalf("FindByUserProduct key: %+v %v", byRef, err)
	}
	byRef, err = repo.FindByUserProduct(ctx, userID, productID)
	if err != nil || byRef.ID != first.ID {
		t.Fatalf("FindByUserProduct id: %+v %v", byRef, err)
	}
}

func TestPostgres_NonCanonicalIdentifiers(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := insertUser(ctx, t, pool, "u1")
	productID := insertProduct(ctx, t, pool, "p1", 1000)

	repo := NewPostgres(pool, nil)
	entry, err := repo.AddOrIncrement(ctx, userID, productID, 1, nil)
	if err != nil {
		t.Fatalf("AddOrIncrement: %v", err)
	}

	byID, err := repo.GetByID(ctx, "urn:uuid:"+entry.ID)
	if err != nil || byID.ID != entry.ID {
		t.Fatalf("GetByID urn form: %+v %v", byID, err)
	}
	byRef, err := repo.FindByUserProduct(ctx, userID, strings.ToUpper(productID))
	if err != nil || byRef.ID != entry.ID {
		t.Fatalf("FindByUserProduct upper-case id: %+v %v", byRef, err)
	}
	if _, err := repo.GetByID(ctx, "urn:uuid:nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for malformed urn, got %v", err)
	}
}

func TestPostgres_OrphanedEntryHasNoProduct(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := insertUser(ctx, t, pool, "u1")
	productID := insertProduct(ctx, t, pool, "gone", 500)

	repo := NewPostgres(pool, nil)
	if _, err := repo.AddOrIncrement(ctx, userID, productID, 1, nil); err != nil {
		t.Fatalf("AddOrIncrement: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	entries, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(entries) != 1 || entries[0].Product != nil {
		t.Fatalf("expected one orphaned entry, got %+v", entries)
	}
}

func TestPostgres_UpdateDeleteClear(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := insertUser(ctx, t, pool, "u1")
	p1 := insertProduct(ctx, t, pool, "p1", 100)
	p2 := insertProduct(ctx, t, pool, "p2", 200)

	repo := NewPostgres(pool, nil)
	e1, err := repo.AddOrIncrement(ctx, userID, p1, 1, nil)
	if err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if _, err := repo.AddOrIncrement(ctx, userID, p2, 1, nil); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	if err := repo.UpdateQuantity(ctx, e1.ID, 7); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	got, err := repo.GetByID(ctx, e1.ID)
	if err != nil || got.Quantity != 7 {
		t.Fatalf("GetByID: %+v %v", got, err)
	}

	if err := repo.Delete(ctx, e1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, e1.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	n, err := repo.DeleteByUser(ctx, userID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByUser: n=%d err=%v", n, err)
	}
	n, err = repo.DeleteByUser(ctx, userID)
	if err != nil || n != 0 {
		t.Fatalf("DeleteByUser on empty cart: n=%d err=%v", n, err)
	}
}

func insertUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `INSERT INTO users (username, email, password_hash) VALUES ($1, $1 || '@example.com', 'x') RETURNING id::text`, name).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func insertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, key string, cents int64) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `INSERT INTO products (key, name, price_cents) VALUES ($1, $1, $2) RETURNING id::text`, key, cents).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping postgres integration test")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool, nil); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE orders, wishlist_items, cart_items, products, tokens, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
