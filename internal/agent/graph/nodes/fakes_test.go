package nodes

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// fakeChatModel answers with reply, or blocks until the context ends when
// block is set.
type fakeChatModel struct {
	mu    sync.Mutex
	reply string
	err   error
	block bool
	usage *schema.TokenUsage
	calls int
	last  []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls++
	f.last = input
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	msg := schema.AssistantMessage(f.reply, nil)
	if f.usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: f.usage}
	}
	return msg, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type stubProvider struct {
	label string
	err   error
}

func (p stubProvider) Label(context.Context, string, []model.Intent) (string, error) {
	return p.label, p.err
}

type stubDispatcher func(ctx context.Context, intent model.Intent, query string, h model.CommerceHandle) (string, error)

func (d stubDispatcher) Dispatch(ctx context.Context, intent model.Intent, query string, h model.CommerceHandle) (string, error) {
	return d(ctx, intent, query, h)
}

// nopHandle finds nothing and records Close.
type nopHandle struct{ closed bool }

func (h *nopHandle) Order(context.Context, string) (model.Order, bool, error) {
	return model.Order{}, false, nil
}
func (h *nopHandle) Customer(context.Context, string) (model.Customer, bool, error) {
	return model.Customer{}, false, nil
}
func (h *nopHandle) OrderItems(context.Context, string) ([]model.OrderItem, error) { return nil, nil }
func (h *nopHandle) Product(context.Context, string) (model.Product, bool, error) {
	return model.Product{}, false, nil
}
func (h *nopHandle) CategoryTranslation(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (h *nopHandle) Payments(context.Context, string) ([]model.Payment, error) { return nil, nil }
func (h *nopHandle) Reviews(context.Context, string) ([]model.Review, error)   { return nil, nil }
func (h *nopHandle) Close() error {
	h.closed = true
	return nil
}

type nopStore struct {
	handle  *nopHandle
	openErr error
}

func (s *nopStore) Open(context.Context) (model.CommerceHandle, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.handle, nil
}
