package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Chative-commerce-agent/server/internal/agent/graph/nodes"
	"github.com/Chative-commerce-agent/server/internal/agent/graph/tools"
	"github.com/Chative-commerce-agent/server/internal/agent/model"
	"github.com/Chative-commerce-agent/server/internal/agent/repo"
	"github.com/Chative-commerce-agent/server/internal/core"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const missingOrder = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

type echoChatModel struct {
	prefix string
	err    error
}

func (m *echoChatModel) Generate(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.prefix+in[len(in)-1].Content, nil), nil
}

func (m *echoChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type labelChatModel struct {
	label string
	err   error
}

func (m *labelChatModel) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.label, nil), nil
}

func (m *labelChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type emptyRetriever struct{}

func (emptyRetriever) Retrieve(context.Context, string, ...retriever.Option) ([]*schema.Document, error) {
	return nil, nil
}

type emptyHandle struct{}

func (emptyHandle) Order(context.Context, string) (model.Order, bool, error) {
	return model.Order{}, false, nil
}
func (emptyHandle) Customer(context.Context, string) (model.Customer, bool, error) {
	return model.Customer{}, false, nil
}
func (emptyHandle) OrderItems(context.Context, string) ([]model.OrderItem, error) { return nil, nil }
func (emptyHandle) Product(context.Context, string) (model.Product, bool, error) {
	return model.Product{}, false, nil
}
func (emptyHandle) CategoryTranslation(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (emptyHandle) Payments(context.Context, string) ([]model.Payment, error) { return nil, nil }
func (emptyHandle) Reviews(context.Context, string) ([]model.Review, error)   { return nil, nil }
func (emptyHandle) Close() error                                               { return nil }

type emptyStore struct{ err error }

func (s emptyStore) Open(context.Context) (model.CommerceHandle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return emptyHandle{}, nil
}

type memoryLog struct {
	mu   sync.Mutex
	recs []model.Interaction
	err  error
}

func (l *memoryLog) Append(_ context.Context, rec model.Interaction) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, rec)
	return nil
}

type fixture struct {
	cfg  Config
	repo *repo.MemoryConversationRepository
	log  *memoryLog
}

func newFixture() *fixture {
	r := repo.NewMemoryConversationRepository()
	l := &memoryLog{}
	return &fixture{
		repo: r,
		log:  l,
		cfg: Config{
			Classifier:       nodes.NewClassifier(nodes.KeywordLabelProvider{}, time.Second),
			Dispatcher:       tools.NewDispatcher(emptyRetriever{}, 1),
			Formatter:        nodes.NewFormatter(nil, "", 0),
			Commerce:         emptyStore{},
			InteractionLog:   l,
			ConversationRepo: r,
			Conversation: model.ConversationConfig{
				HistoryLimit:    3,
				DispatchTimeout: time.Second,
			},
			Callbacks: []callbacks.Handler{},
		},
	}
}

func (f *fixture) runner(t *testing.T) *TurnRunner {
	t.Helper()
	r, err := BuildTurnGraph(context.Background(), f.cfg)
	require.NoError(t, err)
	return r
}

func (f *fixture) state(t *testing.T, id string) *model.ConversationState {
	t.Helper()
	s, ok, err := f.repo.Load(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	return s
}

func TestTurnOrderNotFound(t *testing.T) {
	f := newFixture()
	r := f.runner(t)

	out, err := r.Invoke(context.Background(), model.QueryInput{ConversationID: "t1", Query: "status of order " + missingOrder})
	require.NoError(t, err)
	assert.Equal(t, "No order found for ID: "+missingOrder+".", out)

	s := f.state(t, "t1")
	require.NotNil(t, s.Classification)
	assert.Equal(t, model.IntentOrderStatus, *s.Classification)
	assert.Equal(t, out, *s.ToolOutput)
	assert.Equal(t, out, s.OutputText())
	assert.Equal(t, []model.Turn{{User: "status of order " + missingOrder, Agent: out}}, s.History)

	require.Len(t, f.log.recs, 1)
	assert.Equal(t, "status of order "+missingOrder, f.log.recs[0].Query)
	assert.Equal(t, out, f.log.recs[0].Answer)
	assert.Equal(t, "t1", f.log.recs[0].ThreadID)
}

func TestTurnFAQWithoutMatches(t *testing.T) {
	f := newFixture()
	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "How do returns work?"})
	require.NoError(t, err)
	assert.Equal(t, tools.NoFAQMessage, out)
}

func TestTurnInvalidOrderID(t *testing.T) {
	f := newFixture()
	f.cfg.Classifier = nodes.NewClassifier(nodes.NewChatLabelProvider(&labelChatModel{label: "refund_status"}, "m"), time.Second)

	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "was I refunded?"})
	require.NoError(t, err)
	assert.Equal(t, tools.InvalidOrderIDMessage, out)
}

func TestTurnFormatterRephrases(t *testing.T) {
	f := newFixture()
	f.cfg.Formatter = nodes.NewFormatter(&echoChatModel{prefix: "Friendly: "}, "m", time.Second)

	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "status of order " + missingOrder})
	require.NoError(t, err)

	raw := "No order found for ID: " + missingOrder + "."
	assert.Equal(t, "Friendly: Please rephrase the following text:\n"+raw, out)

	s := f.state(t, "t")
	assert.Equal(t, raw, *s.ToolOutput)
	assert.Equal(t, out, s.History[0].Agent)
}

func TestTurnFormatterFailureReturnsRaw(t *testing.T) {
	f := newFixture()
	f.cfg.Formatter = nodes.NewFormatter(&echoChatModel{err: errors.New("503")}, "m", time.Second)

	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "status of order " + missingOrder})
	require.NoError(t, err)
	assert.Equal(t, "No order found for ID: "+missingOrder+".", out)
}

func TestTurnClassifierFailureUsesFallback(t *testing.T) {
	f := newFixture()
	f.cfg.Classifier = nodes.NewClassifier(nodes.NewChatLabelProvider(&labelChatModel{err: errors.New("quota")}, "m"), time.Second)

	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "item list for " + missingOrder})
	require.NoError(t, err)
	assert.Equal(t, "No order found for ID: "+missingOrder+".", out)
	assert.Equal(t, model.IntentOrderDetails, *f.state(t, "t").Classification)
}

func TestTurnDispatchFailure(t *testing.T) {
	f := newFixture()
	f.cfg.Commerce = emptyStore{err: errors.New("unable to open database file")}

	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "order " + missingOrder})
	require.NoError(t, err)
	assert.Equal(t, "Error during tool dispatch: unable to open database file", out)
	assert.Len(t, f.state(t, "t").History, 1)
}

func TestTurnLogFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.log.err = errors.New("disk full")
	f.cfg.InteractionLog = f.log

	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, tools.NoFAQMessage, out)
}

func TestHistoryWindow(t *testing.T) {
	f := newFixture()
	r := f.runner(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := r.Invoke(ctx, model.QueryInput{ConversationID: "t", Query: fmt.Sprintf("question %d", i)})
		require.NoError(t, err)
	}

	h, err := r.History(ctx, "t")
	require.NoError(t, err)
	want := []model.Turn{
		{User: "question 2", Agent: tools.NoFAQMessage},
		{User: "question 3", Agent: tools.NoFAQMessage},
		{User: "question 4", Agent: tools.NoFAQMessage},
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestUnboundedHistory(t *testing.T) {
	f := newFixture()
	f.cfg.Conversation.HistoryLimit = 0
	r := f.runner(t)

	for i := 0; i < 5; i++ {
		_, err := r.Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "q"})
		require.NoError(t, err)
	}
	assert.Len(t, f.state(t, "t").History, 5)
}

func TestTurnsOnOneThreadAreSerialised(t *testing.T) {
	f := newFixture()
	f.cfg.Conversation.HistoryLimit = 0
	r := f.runner(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Invoke(context.Background(), model.QueryInput{ConversationID: "shared", Query: fmt.Sprintf("q%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.state(t, "shared").History, 10)
	assert.Len(t, f.log.recs, 10)
}

func TestThreadsAreIsolated(t *testing.T) {
	f := newFixture()
	r := f.runner(t)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Invoke(context.Background(), model.QueryInput{ConversationID: fmt.Sprintf("t%d", i), Query: "hi"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, f.repo.Len())
	for i := 0; i < 5; i++ {
		assert.Len(t, f.state(t, fmt.Sprintf("t%d", i)).History, 1)
	}
}

func TestNewConversationIsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Level: "debug", Output: &buf})
	t.Cleanup(func() { logx.Init() })

	f := newFixture()
	r := f.runner(t)
	for i := 0; i < 2; i++ {
		_, err := r.Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "hi"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), `"message":"Starting new conversation"`))
}

func TestInvokeRequiresConversationID(t *testing.T) {
	f := newFixture()
	_, err := f.runner(t).Invoke(context.Background(), model.QueryInput{Query: "hi"})
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	f := newFixture()
	r := f.runner(t)
	ctx := context.Background()

	_, err := r.Invoke(ctx, model.QueryInput{ConversationID: "t", Query: "hi"})
	require.NoError(t, err)
	require.NoError(t, r.Reset(ctx, "t"))

	h, err := r.History(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestBuildRejectsIncompleteConfig(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	f.cfg.ConversationRepo = nil
	_, err := BuildTurnGraph(ctx, f.cfg)
	assert.Error(t, err)

	f = newFixture()
	f.cfg.Classifier = nil
	_, err = BuildTurnGraph(ctx, f.cfg)
	assert.Error(t, err)

	f = newFixture()
	f.cfg.Commerce = nil
	_, err = BuildTurnGraph(ctx, f.cfg)
	assert.Error(t, err)
}

func TestDefaultObserversRun(t *testing.T) {
	f := newFixture()
	f.cfg.Callbacks = nil
	f.cfg.Formatter = nodes.NewFormatter(&echoChatModel{prefix: "> "}, "m", time.Second)

	out, err := f.runner(t).Invoke(context.Background(), model.QueryInput{ConversationID: "t", Query: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
