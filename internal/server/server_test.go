package server

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/fields"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

const markedText = "\n--- Page 1 ---\nSara Lee\nHead of Sales\n--- Page 2 ---\nAhmed Khan\nahmed.khan@emaar.ae\n"

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := ConnectDB(context.Background(), common.StoreConfig{
		Driver: repository.DriverSQLite,
		DSN:    "file:" + filepath.Join(t.TempDir(), "server.db"),
	}, discard())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

// newTestProcessor handles text input only; no OCR tools are involved.
func newTestProcessor(t *testing.T, store *repository.Store) *core.Processor {
	t.Helper()
	return core.NewProcessor(discard(), nil, nil,
		fields.MustNewExtractor(fields.DefaultVocabulary()), store,
		core.ProcessorConfig{WorkDir: t.TempDir()})
}
