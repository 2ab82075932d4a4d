package repo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// lineEscaper keeps every interaction on a single line.
var lineEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`)

// FileInteractionLog appends one line per answered query:
//
//	2024-05-01T10:00:00.123456789Z | Q: where is my order? | A: It shipped.
type FileInteractionLog struct {
	path string
	mu   sync.Mutex
}

func NewFileInteractionLog(path string) *FileInteractionLog {
	return &FileInteractionLog{path: path}
}

// FormatInteraction renders rec as a log line without the trailing newline.
func FormatInteraction(rec model.Interaction) string {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("%s | Q: %s | A: %s",
		at.Format(time.RFC3339Nano), lineEscaper.Replace(rec.Query), lineEscaper.Replace(rec.Answer))
}

func (l *FileInteractionLog) Append(_ context.Context, rec model.Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open interaction log: %w", err)
	}
	if _, err := f.WriteString(FormatInteraction(rec) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write interaction log: %w", err)
	}
	return f.Close()
}

var _ model.InteractionLog = (*FileInteractionLog)(nil)
