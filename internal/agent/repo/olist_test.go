package repo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

const testOrderID = "e481f51cbdc54678b7cc49136f2d6af7"

func seedOlist(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO olist_customers_dataset (customer_id, customer_unique_id, customer_city, customer_state)
			VALUES ('c1', 'u1', 'sao paulo', 'SP')`,
		`INSERT INTO product_category_name_translation VALUES ('utilidades_domesticas', 'housewares')`,
		`INSERT INTO olist_products_dataset (product_id, product_category_name) VALUES ('p1', 'utilidades_domesticas')`,
		`INSERT INTO olist_products_dataset (product_id, product_category_name) VALUES ('p2', NULL)`,
		`INSERT INTO olist_orders_dataset (order_id, customer_id, order_status, order_purchase_timestamp, order_estimated_delivery_date)
			VALUES ('` + testOrderID + `', 'c1', 'delivered', '2017-10-02 10:56:33', '2017-10-18 00:00:00')`,
		`INSERT INTO olist_order_items_dataset (order_id, order_item_id, product_id, seller_id, price)
			VALUES ('` + testOrderID + `', 2, 'p2', 's1', 10.5)`,
		`INSERT INTO olist_order_items_dataset (order_id, order_item_id, product_id, seller_id, price)
			VALUES ('` + testOrderID + `', 1, 'p1', 's1', 29.99)`,
		`INSERT INTO olist_order_payments_dataset (order_id, payment_sequential, payment_type, payment_value)
			VALUES ('` + testOrderID + `', 1, 'credit_card', 18.12)`,
		`INSERT INTO olist_order_payments_dataset (order_id, payment_sequential, payment_type, payment_value)
			VALUES ('` + testOrderID + `', 2, 'voucher', NULL)`,
		`INSERT INTO olist_order_reviews_dataset (review_id, order_id, review_score, review_comment_message)
			VALUES ('r1', '` + testOrderID + `', 4, 'fast delivery')`,
		`INSERT INTO olist_order_reviews_dataset (review_id, order_id, review_score, review_comment_message)
			VALUES ('r0', '` + testOrderID + `', 1, NULL)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
}

func newOlistStore(t *testing.T) *OlistStore {
	t.Helper()
	store := NewOlistStore(openTestDB(t))
	require.NoError(t, store.Migrate(context.Background()))
	// Migrate is idempotent.
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestOlistStoreHasOrders(t *testing.T) {
	ctx := context.Background()
	store := newOlistStore(t)

	ok, err := store.HasOrders(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	seedOlist(t, store.db)
	ok, err = store.HasOrders(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOlistStoreHasOrdersWithoutSchema(t *testing.T) {
	store := NewOlistStore(openTestDB(t))
	_, err := store.HasOrders(context.Background())
	assert.Error(t, err)
}

func TestOlistHandleLookups(t *testing.T) {
	ctx := context.Background()
	store := newOlistStore(t)
	seedOlist(t, store.db)

	h, err := store.Open(ctx)
	require.NoError(t, err)
	defer h.Close()

	order, ok, err := h.Order(ctx, testOrderID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Order{
		ID:                testOrderID,
		CustomerID:        "c1",
		Status:            "delivered",
		PurchaseTimestamp: "2017-10-02 10:56:33",
		EstimatedDelivery: "2017-10-18 00:00:00",
	}, order)

	_, ok, err = h.Order(ctx, "ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	assert.False(t, ok)

	cust, ok, err := h.Customer(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sao paulo", cust.City)

	items, err := h.OrderItems(ctx, testOrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.InDelta(t, 29.99, items[0].Price, 1e-9)

	p1, ok, err := h.Product(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, p1.Category)
	assert.Equal(t, "utilidades_domesticas", *p1.Category)

	p2, ok, err := h.Product(ctx, "p2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, p2.Category)

	en, ok, err := h.CategoryTranslation(ctx, "utilidades_domesticas")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "housewares", en)

	_, ok, err = h.CategoryTranslation(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	pays, err := h.Payments(ctx, testOrderID)
	require.NoError(t, err)
	require.Len(t, pays, 2)
	require.NotNil(t, pays[0].Value)
	assert.InDelta(t, 18.12, *pays[0].Value, 1e-9)
	assert.Nil(t, pays[1].Value)

	reviews, err := h.Reviews(ctx, testOrderID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "r1", reviews[0].ID)
	require.NotNil(t, reviews[0].Message)
	assert.Nil(t, reviews[1].Message)

	none, err := h.Reviews(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOlistHandleCloseEndsTransaction(t *testing.T) {
	ctx := context.Background()
	store := newOlistStore(t)
	seedOlist(t, store.db)

	// More handles than pooled connections: each Close must give its
	// connection back.
	for i := 0; i < 4; i++ {
		h, err := store.Open(ctx)
		require.NoError(t, err)
		_, ok, err := h.Order(ctx, testOrderID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, h.Close())
		require.NoError(t, h.Close())

		_, _, err = h.Order(ctx, testOrderID)
		assert.ErrorIs(t, err, sql.ErrTxDone)
	}

	ok, err := store.HasOrders(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
