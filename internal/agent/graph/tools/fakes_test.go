package tools

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

const orderID = "e481f51cbdc54678b7cc49136f2d6af7"

func ptr[T any](v T) *T { return &v }

type fakeHandle struct {
	orders       map[string]model.Order
	customers    map[string]model.Customer
	items        map[string][]model.OrderItem
	products     map[string]model.Product
	translations map[string]string
	payments     map[string][]model.Payment
	reviews      map[string][]model.Review

	err    error
	closed bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		orders: map[string]model.Order{
			orderID: {
				ID:                orderID,
				CustomerID:        "c1",
				Status:            "delivered",
				PurchaseTimestamp: "2017-10-02 10:56:33",
				EstimatedDelivery: "2017-10-18 00:00:00",
			},
		},
		customers: map[string]model.Customer{
			"c1": {ID: "c1", UniqueID: "u1", City: "sao paulo", State: "SP"},
		},
		items: map[string][]model.OrderItem{
			orderID: {
				{OrderID: orderID, ItemID: 1, ProductID: "p1", SellerID: "s1", Price: 29.99},
				{OrderID: orderID, ItemID: 2, ProductID: "p2", SellerID: "s2", Price: 10},
				{OrderID: orderID, ItemID: 3, ProductID: "p3", SellerID: "s2", Price: 5.5},
			},
		},
		products: map[string]model.Product{
			"p1": {ID: "p1", Category: ptr("utilidades_domesticas")},
			"p2": {ID: "p2", Category: ptr("cool_stuff")},
			"p3": {ID: "p3"},
		},
		translations: map[string]string{"utilidades_domesticas": "housewares"},
		payments: map[string][]model.Payment{
			orderID: {
				{OrderID: orderID, Sequential: 1, Type: "credit_card", Value: ptr(18.12)},
				{OrderID: orderID, Sequential: 2, Type: "voucher", Value: ptr(2.0)},
				{OrderID: orderID, Sequential: 3, Type: "credit_card", Value: nil},
			},
		},
		reviews: map[string][]model.Review{
			orderID: {
				{ID: "r1", OrderID: orderID, Score: 4},
				{ID: "r2", OrderID: orderID, Score: 1, Message: ptr("late")},
			},
		},
	}
}

func (h *fakeHandle) Order(_ context.Context, id string) (model.Order, bool, error) {
	o, ok := h.orders[id]
	return o, ok, h.err
}

func (h *fakeHandle) Customer(_ context.Context, id string) (model.Customer, bool, error) {
	c, ok := h.customers[id]
	return c, ok, h.err
}

func (h *fakeHandle) OrderItems(_ context.Context, id string) ([]model.OrderItem, error) {
	return h.items[id], h.err
}

func (h *fakeHandle) Product(_ context.Context, id string) (model.Product, bool, error) {
	p, ok := h.products[id]
	return p, ok, h.err
}

func (h *fakeHandle) CategoryTranslation(_ context.Context, c string) (string, bool, error) {
	e, ok := h.translations[c]
	return e, ok, h.err
}

func (h *fakeHandle) Payments(_ context.Context, id string) ([]model.Payment, error) {
	return h.payments[id], h.err
}

func (h *fakeHandle) Reviews(_ context.Context, id string) ([]model.Review, error) {
	return h.reviews[id], h.err
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

type fakeStore struct {
	handle  *fakeHandle
	openErr error
}

func (s *fakeStore) Open(context.Context) (model.CommerceHandle, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.handle, nil
}

type fakeRetriever struct {
	docs    []*schema.Document
	err     error
	gotTopK int
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string, opts ...retriever.Option) ([]*schema.Document, error) {
	o := retriever.GetCommonOptions(&retriever.Options{}, opts...)
	if o.TopK != nil {
		r.gotTopK = *o.TopK
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.gotTopK > 0 && len(r.docs) > r.gotTopK {
		return r.docs[:r.gotTopK], nil
	}
	return r.docs, nil
}

var errDB = errors.New("database is locked")
