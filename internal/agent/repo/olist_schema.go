package repo

// olistSchema mirrors the Olist public e-commerce dataset. Timestamps are
// declared TEXT so they are read back exactly as loaded.
const olistSchema = `
CREATE TABLE IF NOT EXISTS olist_customers_dataset (
	customer_id TEXT PRIMARY KEY,
	customer_unique_id TEXT NOT NULL,
	customer_zip_code_prefix INTEGER NOT NULL DEFAULT 0,
	customer_city TEXT NOT NULL,
	customer_state TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS olist_sellers_dataset (
	seller_id TEXT PRIMARY KEY,
	seller_zip_code_prefix INTEGER NOT NULL DEFAULT 0,
	seller_city TEXT NOT NULL DEFAULT '',
	seller_state TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS product_category_name_translation (
	product_category_name TEXT PRIMARY KEY,
	product_category_name_english TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS olist_products_dataset (
	product_id TEXT PRIMARY KEY,
	product_category_name TEXT,
	product_name_lenght INTEGER,
	product_description_lenght INTEGER,
	product_photos_qty INTEGER,
	product_weight_g INTEGER,
	product_length_cm INTEGER,
	product_height_cm INTEGER,
	product_width_cm INTEGER
);

CREATE TABLE IF NOT EXISTS olist_orders_dataset (
	order_id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL REFERENCES olist_customers_dataset(customer_id),
	order_status TEXT NOT NULL,
	order_purchase_timestamp TEXT NOT NULL,
	order_approved_at TEXT,
	order_delivered_carrier_date TEXT,
	order_delivered_customer_date TEXT,
	order_estimated_delivery_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS olist_order_items_dataset (
	order_id TEXT NOT NULL REFERENCES olist_orders_dataset(order_id),
	order_item_id INTEGER NOT NULL,
	product_id TEXT NOT NULL,
	seller_id TEXT NOT NULL,
	shipping_limit_date TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL,
	freight_value REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (order_id, order_item_id)
);

CREATE TABLE IF NOT EXISTS olist_order_payments_dataset (
	order_id TEXT NOT NULL REFERENCES olist_orders_dataset(order_id),
	payment_sequential INTEGER NOT NULL,
	payment_type TEXT NOT NULL,
	payment_installments INTEGER NOT NULL DEFAULT 1,
	payment_value REAL,
	PRIMARY KEY (order_id, payment_sequential)
);

CREATE TABLE IF NOT EXISTS olist_order_reviews_dataset (
	review_id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES olist_orders_dataset(order_id),
	review_score INTEGER NOT NULL,
	review_comment_title TEXT,
	review_comment_message TEXT,
	review_creation_date TEXT NOT NULL DEFAULT '',
	review_answer_timestamp TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS olist_geolocation_dataset (
	geolocation_zip_code_prefix INTEGER NOT NULL,
	geolocation_lat REAL NOT NULL,
	geolocation_lng REAL NOT NULL,
	geolocation_city TEXT NOT NULL,
	geolocation_state TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_customer ON olist_orders_dataset(customer_id);
CREATE INDEX IF NOT EXISTS idx_payments_order ON olist_order_payments_dataset(order_id);
CREATE INDEX IF NOT EXISTS idx_reviews_order ON olist_order_reviews_dataset(order_id);
`
