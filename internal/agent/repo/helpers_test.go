package repo

import (
	"context"
	"database/sql"
	"hash/fnv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/require"

	"github.com/Chative-commerce-agent/server/pkg/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := sqlite.Config{File: filepath.Join(t.TempDir(), "olist.db"), BusyTimeout: 1000, MaxOpen: 2}
	db, err := cfg.New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// bagOfWordsEmbedder hashes lower-cased words into a fixed number of buckets.
type bagOfWordsEmbedder struct {
	calls int
	err   error
}

func (e *bagOfWordsEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, 64)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			w = strings.Trim(w, "?.,!")
			h := fnv.New32a()
			h.Write([]byte(w))
			vec[h.Sum32()%64]++
		}
		out[i] = vec
	}
	return out, nil
}
