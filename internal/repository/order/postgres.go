package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const columns = `o.id::text, o.user_id::text, o.items, o.shipping_address, o.payment_method,
       o.subtotal_cents, o.tax_cents, o.shipping_cents, o.total_cents, o.status,
       COALESCE(o.tracking_number, ''), o.estimated_delivery_date, o.created_at, o.updated_at`

// lineDoc is the stored shape of an order line.
type lineDoc struct {
	ProductID  string            `json:"productId"`
	Name       string            `json:"name"`
	Image      string            `json:"image"`
	PriceCents int64             `json:"priceCents"`
	Quantity   int               `json:"quantity"`
	Options    map[string]string `json:"options,omitempty"`
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	items, err := encodeItems(o.Items)
	if err != nil {
		return nil, err
	}
	status := o.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	q := `
WITH o AS (
    INSERT INTO orders (user_id, items, shipping_address, payment_method,
                        subtotal_cents, tax_cents, shipping_cents, total_cents, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING *
)
SELECT ` + columns + ` FROM o`
	created, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.UserID,
		items,
		o.ShippingAddress,
		o.PaymentMethod,
		domain.Cents(o.Subtotal),
		domain.Cents(o.Tax),
		domain.Cents(o.Shipping),
		domain.Cents(o.Total),
		string(status),
	), false)
	if err != nil {
		r.logger.Error("create order", zap.String("user_id", o.UserID), zap.Error(err))
		return nil, db.Classify(err)
	}
	r.logger.Info("created order", zap.String("order_id", created.ID), zap.String("user_id", created.UserID), zap.Int("items", len(created.Items)))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	id, ok := db.CanonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM orders o WHERE o.id = $1`, id), false)
	if err != nil {
		return nil, db.Classify(err)
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, false, `SELECT `+columns+` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, true, `
SELECT `+columns+`, COALESCE(u.username, ''), COALESCE(u.email, '')
FROM orders o
LEFT JOIN users u ON u.id = o.user_id
ORDER BY o.created_at DESC, o.id`)
}

func (r *postgresRepo) list(ctx context.Context, withOwner bool, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list orders", zap.Error(err))
		return nil, db.Classify(err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows, withOwner)
		if err != nil {
			return nil, db.Classify(err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return orders, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*domain.Order, error) {
	id, ok := db.CanonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	q := `
WITH o AS (
    UPDATE orders
    SET status = $1,
        tracking_number = COALESCE($2, tracking_number),
        estimated_delivery_date = COALESCE($3, estimated_delivery_date),
        updated_at = now()
    WHERE id = $4
    RETURNING *
)
SELECT ` + columns + ` FROM o`
	updated, err := scanOrder(r.pool.QueryRow(ctx, q, string(upd.Status), upd.TrackingNumber, upd.EstimatedDeliveryDate, id), false)
	if err != nil {
		return nil, db.Classify(err)
	}
	r.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", string(upd.Status)))
	return updated, nil
}

func encodeItems(items []domain.OrderLineItem) ([]byte, error) {
	docs := make([]lineDoc, 0, len(items))
	for _, it := range items {
		docs = append(docs, lineDoc{
			ProductID:  it.ProductID,
			Name:       it.Name,
			Image:      it.Image,
			PriceCents: domain.Cents(it.Price),
			Quantity:   it.Quantity,
			Options:    it.Options,
		})
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode order items: %w", err)
	}
	return raw, nil
}

func decodeItems(raw []byte) ([]domain.OrderLineItem, error) {
	var docs []lineDoc
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	items := make([]domain.OrderLineItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, domain.OrderLineItem{
			ProductID: d.ProductID,
			Name:      d.Name,
			Image:     d.Image,
			Price:     domain.FromCents(d.PriceCents),
			Quantity:  d.Quantity,
			Options:   d.Options,
		})
	}
	return items, nil
}

func scanOrder(row pgx.Row, withOwner bool) (*domain.Order, error) {
	var (
		o                              domain.Order
		rawItems                       []byte
		status                         string
		subtotal, tax, shipping, total int64
		owner                          domain.OrderOwner
	)
	dest := []any{
		&o.ID, &o.UserID, &rawItems, &o.ShippingAddress, &o.PaymentMethod,
		&subtotal, &tax, &shipping, &total, &status,
		&o.TrackingNumber, &o.EstimatedDeliveryDate, &o.CreatedAt, &o.UpdatedAt,
	}
	if withOwner {
		dest = append(dest, &owner.Username, &owner.Email)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	items, err := decodeItems(rawItems)
	if err != nil {
		return nil, err
	}
	o.Items = items
	o.Status = domain.OrderStatus(status)
	o.Subtotal = domain.FromCents(subtotal)
	o.Tax = domain.FromCents(tax)
	o.Shipping = domain.FromCents(shipping)
	o.Total = domain.FromCents(total)
	if withOwner {
		o.Owner = &owner
	}
	return &o, nil
}
