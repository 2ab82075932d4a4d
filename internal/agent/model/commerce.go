package model

import "context"

// Order is a row of the orders table. Timestamps are kept as stored text.
type Order struct {
	ID                string `json:"order_id"`
	CustomerID        string `json:"customer_id"`
	Status            string `json:"order_status"`
	PurchaseTimestamp string `json:"order_purchase_timestamp"`
	EstimatedDelivery string `json:"order_estimated_delivery_date"`
}

type Customer struct {
	ID       string `json:"customer_id"`
	UniqueID string `json:"customer_unique_id"`
	City     string `json:"customer_city"`
	State    string `json:"customer_state"`
}

type OrderItem struct {
	OrderID   string  `json:"order_id"`
	ItemID    int     `json:"order_item_id"`
	ProductID string  `json:"product_id"`
	SellerID  string  `json:"seller_id"`
	Price     float64 `json:"price"`
}

type Product struct {
	ID       string  `json:"product_id"`
	Category *string `json:"product_category_name,omitempty"`
}

type Payment struct {
	OrderID    string   `json:"order_id"`
	Sequential int      `json:"payment_sequential"`
	Type       string   `json:"payment_type"`
	Value      *float64 `json:"payment_value,omitempty"`
}

type Review struct {
	ID      string  `json:"review_id"`
	OrderID string  `json:"order_id"`
	Score   int     `json:"review_score"`
	Message *string `json:"review_comment_message,omitempty"`
}

// CommerceStore hands out scoped read access to the order data.
type CommerceStore interface {
	Open(ctx context.Context) (CommerceHandle, error)
}

// CommerceHandle is a short-lived read session. Lookups that find nothing
// return found=false with a nil error; errors are infrastructure faults.
// Close must be called on every path.
type CommerceHandle interface {
	Order(ctx context.Context, orderID string) (order Order, found bool, err error)
	Customer(ctx context.Context, customerID string) (customer Customer, found bool, err error)
	OrderItems(ctx context.Context, orderID string) ([]OrderItem, error)
	Product(ctx context.Context, productID string) (product Product, found bool, err error)
	CategoryTranslation(ctx context.Context, category string) (english string, found bool, err error)
	Payments(ctx context.Context, orderID string) ([]Payment, error)
	Reviews(ctx context.Context, orderID string) ([]Review, error)
	Close() error
}
