package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	errx "github.com/Chative-commerce-agent/server/internal/core/error"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

// OlistStore serves order lookups from the Olist tables.
type OlistStore struct {
	db *sql.DB
}

func NewOlistStore(db *sql.DB) *OlistStore {
	return &OlistStore{db: db}
}

// Migrate creates the Olist tables if they do not exist.
func (s *OlistStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, olistSchema); err != nil {
		return errx.WrapDB(fmt.Errorf("create olist schema: %w", err))
	}
	return nil
}

// HasOrders reports whether the orders table exists and has at least one row.
func (s *OlistStore) HasOrders(ctx context.Context) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM olist_orders_dataset LIMIT 1`).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errx.WrapDB(err)
	}
	return true, nil
}

// Open starts a transaction for the caller. Every lookup on the handle reads
// the same snapshot; Close rolls it back, so nothing is ever written.
func (s *OlistStore) Open(ctx context.Context) (model.CommerceHandle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logx.Error().Err(err).Msg("failed to begin read transaction")
		return nil, errx.WrapDB(err)
	}
	return &olistHandle{tx: tx}, nil
}

type olistHandle struct {
	tx *sql.Tx
}

func (h *olistHandle) Close() error {
	if err := h.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errx.WrapDB(err)
	}
	return nil
}

func (h *olistHandle) Order(ctx context.Context, orderID string) (model.Order, bool, error) {
	var o model.Order
	err := h.tx.QueryRowContext(ctx, `
		SELECT order_id, customer_id, order_status, order_purchase_timestamp, order_estimated_delivery_date
		FROM olist_orders_dataset WHERE order_id = ?`, orderID).
		Scan(&o.ID, &o.CustomerID, &o.Status, &o.PurchaseTimestamp, &o.EstimatedDelivery)
	return o, found(err), notFoundIsNil(err)
}

func (h *olistHandle) Customer(ctx context.Context, customerID string) (model.Customer, bool, error) {
	var c model.Customer
	err := h.tx.QueryRowContext(ctx, `
		SELECT customer_id, customer_unique_id, customer_city, customer_state
		FROM olist_customers_dataset WHERE customer_id = ?`, customerID).
		Scan(&c.ID, &c.UniqueID, &c.City, &c.State)
	return c, found(err), notFoundIsNil(err)
}

func (h *olistHandle) OrderItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := h.tx.QueryContext(ctx, `
		SELECT order_id, order_item_id, product_id, seller_id, price
		FROM olist_order_items_dataset WHERE order_id = ? ORDER BY order_item_id`, orderID)
	if err != nil {
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ItemID, &it.ProductID, &it.SellerID, &it.Price); err != nil {
			return nil, errx.WrapDB(err)
		}
		items = append(items, it)
	}
	return items, errx.WrapDB(rows.Err())
}

func (h *olistHandle) Product(ctx context.Context, productID string) (model.Product, bool, error) {
	var (
		p   model.Product
		cat sql.NullString
	)
	err := h.tx.QueryRowContext(ctx, `
		SELECT product_id, product_category_name FROM olist_products_dataset WHERE product_id = ?`, productID).
		Scan(&p.ID, &cat)
	if cat.Valid {
		p.Category = &cat.String
	}
	return p, found(err), notFoundIsNil(err)
}

func (h *olistHandle) CategoryTranslation(ctx context.Context, category string) (string, bool, error) {
	var english string
	err := h.tx.QueryRowContext(ctx, `
		SELECT product_category_name_english FROM product_category_name_translation
		WHERE product_category_name = ?`, category).Scan(&english)
	return english, found(err), notFoundIsNil(err)
}

func (h *olistHandle) Payments(ctx context.Context, orderID string) ([]model.Payment, error) {
	rows, err := h.tx.QueryContext(ctx, `
		SELECT order_id, payment_sequential, payment_type, payment_value
		FROM olist_order_payments_dataset WHERE order_id = ? ORDER BY payment_sequential`, orderID)
	if err != nil {
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var (
			p     model.Payment
			value sql.NullFloat64
		)
		if err := rows.Scan(&p.OrderID, &p.Sequential, &p.Type, &value); err != nil {
			return nil, errx.WrapDB(err)
		}
		if value.Valid {
			p.Value = &value.Float64
		}
		payments = append(payments, p)
	}
	return payments, errx.WrapDB(rows.Err())
}

func (h *olistHandle) Reviews(ctx context.Context, orderID string) ([]model.Review, error) {
	rows, err := h.tx.QueryContext(ctx, `
		SELECT review_id, order_id, review_score, review_comment_message
		FROM olist_order_reviews_dataset WHERE order_id = ? ORDER BY rowid`, orderID)
	if err != nil {
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var (
			r   model.Review
			msg sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.OrderID, &r.Score, &msg); err != nil {
			return nil, errx.WrapDB(err)
		}
		if msg.Valid {
			r.Message = &msg.String
		}
		reviews = append(reviews, r)
	}
	return reviews, errx.WrapDB(rows.Err())
}

// found and notFoundIsNil split a single-row scan error into the
// (found, err) pair the handle contract uses.
func found(err error) bool {
	return err == nil
}

func notFoundIsNil(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return errx.WrapDB(err)
}

var (
	_ model.CommerceStore  = (*OlistStore)(nil)
	_ model.CommerceHandle = (*olistHandle)(nil)
)
