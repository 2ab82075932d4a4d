package repo

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	errx "github.com/Chative-commerce-agent/server/internal/core/error"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

const defaultFAQTopK = 2

// ErrNoEmbedder is returned when entries must be embedded but the store was
// opened without an embedder.
var ErrNoEmbedder = errors.New("faq store has no embedder")

const faqSchema = `
CREATE TABLE IF NOT EXISTS faq_entries (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL,
	created_at TEXT NOT NULL
);
`

// FAQEntry is one question/answer pair of the FAQ corpus.
type FAQEntry struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Content is the text that is embedded and returned on a match.
func (e FAQEntry) Content() string {
	return e.Question + " " + e.Answer
}

type faqVector struct {
	id      string
	content string
	vec     []float64
}

// FAQStore is a semantic FAQ index persisted in SQLite. Vectors are cached in
// memory and reloaded whenever the table no longer matches the cached version,
// including after writes from another process.
type FAQStore struct {
	db       *sql.DB
	embedder embedding.Embedder

	mu      sync.RWMutex
	cache   []faqVector
	version faqVersion
	loaded  bool
}

// faqVersion identifies the table contents. Entries are only ever inserted,
// so the row count and the highest rowid change with every write.
type faqVersion struct {
	count    int
	maxRowID int64
}

func NewFAQStore(db *sql.DB, embedder embedding.Embedder) *FAQStore {
	return &FAQStore{db: db, embedder: embedder}
}

// Migrate creates the FAQ table.
func (s *FAQStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, faqSchema); err != nil {
		return errx.WrapDB(fmt.Errorf("create faq schema: %w", err))
	}
	return nil
}

func (s *FAQStore) GetType() string {
	return "SQLiteFAQ"
}

// Count returns the number of stored entries.
func (s *FAQStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faq_entries`).Scan(&n); err != nil {
		return 0, errx.WrapDB(err)
	}
	return n, nil
}

// Add embeds and stores new entries, returning their ids.
func (s *FAQStore) Add(ctx context.Context, entries ...FAQEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
			return nil, errx.Invalid("faq entry %d: question and answer are required", i)
		}
		texts[i] = e.Content()
	}
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}

	vecs, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, errx.WrapProvider(fmt.Errorf("embed faq entries: %w", err))
	}
	if len(vecs) != len(entries) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d entries", len(vecs), len(entries))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errx.WrapDB(err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, len(entries))
	for i, e := range entries {
		id, _ := uuid.NewV7()
		ids[i] = id.String()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO faq_entries (id, question, answer, content, embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ids[i], e.Question, e.Answer, texts[i], encodeEmbedding(vecs[i]), now); err != nil {
			return nil, errx.WrapDB(fmt.Errorf("insert faq: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errx.WrapDB(err)
	}

	logx.Info().Int("count", len(ids)).Msg("Added FAQ entries")
	return ids, nil
}

// Seed adds entries only when the store is empty. It returns how many were added.
func (s *FAQStore) Seed(ctx context.Context, entries []FAQEntry) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logx.Debug().Int("existing", n).Msg("FAQ store already populated; skipping seed")
		return 0, nil
	}
	ids, err := s.Add(ctx, entries...)
	return len(ids), err
}

// Retrieve returns the top-k entries by cosine similarity to query.
func (s *FAQStore) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := defaultFAQTopK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	k := defaultFAQTopK
	if options.TopK != nil && *options.TopK > 0 {
		k = *options.TopK
	}

	entries, err := s.vectors(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []*schema.Document{}, nil
	}
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}

	vecs, err := s.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, errx.WrapProvider(fmt.Errorf("embed query: %w", err))
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(entries))
	for i, e := range entries {
		scores[i] = scored{idx: i, score: CosineSimilarity(vecs[0], e.vec)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })

	docs := make([]*schema.Document, 0, k)
	for _, sc := range scores {
		if len(docs) == k {
			break
		}
		if options.ScoreThreshold != nil && sc.score < *options.ScoreThreshold {
			break
		}
		e := entries[sc.idx]
		doc := &schema.Document{ID: e.id, Content: e.content, MetaData: map[string]any{}}
		docs = append(docs, doc.WithScore(sc.score))
	}
	return docs, nil
}

func (s *FAQStore) vectors(ctx context.Context) ([]faqVector, error) {
	var current faqVersion
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(MAX(rowid), 0) FROM faq_entries`).
		Scan(&current.count, &current.maxRowID); err != nil {
		return nil, errx.WrapDB(err)
	}

	s.mu.RLock()
	if s.loaded && s.version == current {
		c := s.cache
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT rowid, id, content, embedding FROM faq_entries ORDER BY created_at, id`)
	if err != nil {
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	// The version is taken from the rows actually read, so a write that lands
	// during the reload shows up as a mismatch on the next search.
	var (
		out    []faqVector
		loaded faqVersion
	)
	for rows.Next() {
		var (
			v     faqVector
			rowID int64
			blob  []byte
		)
		if err := rows.Scan(&rowID, &v.id, &v.content, &blob); err != nil {
			return nil, errx.WrapDB(err)
		}
		v.vec = decodeEmbedding(blob)
		out = append(out, v)
		loaded.count++
		loaded.maxRowID = max(loaded.maxRowID, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapDB(err)
	}

	s.mu.Lock()
	s.cache, s.version, s.loaded = out, loaded, true
	s.mu.Unlock()
	return out, nil
}

// LoadFAQFile reads a YAML list of question/answer pairs.
func LoadFAQFile(path string) ([]FAQEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}
	var entries []FAQEntry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse faq file %s: %w", path, err)
	}
	return entries, nil
}

// encodeEmbedding packs a vector as little-endian float32 values.
func encodeEmbedding(v []float64) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
	}
	return buf
}

func decodeEmbedding(b []byte) []float64 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float64, len(b)/4)
	for i := range v {
		v[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return v
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ retriever.Retriever = (*FAQStore)(nil)
