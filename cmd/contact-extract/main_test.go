package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
	"github.com/joseph-ayodele/contacts-extractor/internal/export"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

const (
	saraText  = "\n--- Page 1 ---\nSara Lee\nHead of Sales\nsara@acme.com\n"
	ahmedText = "\n--- Page 1 ---\nAhmed Khan\nahmed.khan@emaar.ae\n"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	k, err := kong.New(&cli,
		kong.Name("contact-extract"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	kctx, err := k.Parse(args)
	require.NoError(t, err)

	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() {
		stdout = os.Stdout
		slog.SetDefault(slog.New(slog.DiscardHandler))
	})
	kctx.BindTo(context.Background(), (*context.Context)(nil))
	err = kctx.Run(&cli.Globals)
	return buf.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("WORK_DIR", filepath.Join(dir, "work"))
	t.Setenv("DB_URL", "file:"+filepath.Join(dir, "contacts.db"))
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func sheetRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	return rows
}

func TestProcess_DefaultOutputWithoutStore(t *testing.T) {
	dir := setupEnv(t)
	input := filepath.Join(dir, "in", "cards_text.txt")
	writeFile(t, input, saraText)

	out, err := runCLI(t, "--no-store", "process", input, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "Contacts extracted: 1")
	assert.NotContains(t, out, "Run ID")

	rows := sheetRows(t, filepath.Join(dir, "cards_text_contacts.xlsx"))
	require.Len(t, rows, 2)
	assert.Equal(t, "Sara Lee", rows[1][0])
	assert.Equal(t, "Head of Sales", rows[1][1])

	b, err := os.ReadFile(filepath.Join(dir, "cards_text_contacts.json"))
	require.NoError(t, err)
	var doc export.ContactsDocument
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, 1, doc.Count)

	assert.FileExists(t, filepath.Join(dir, "work", "cards_text_text.txt"))
}

func TestProcess_Unsupported(t *testing.T) {
	dir := setupEnv(t)
	input := filepath.Join(dir, "notes.docx")
	writeFile(t, input, "x")

	_, err := runCLI(t, "--no-store", "process", input, filepath.Join(dir, "out.xlsx"))
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestBatchThenExport(t *testing.T) {
	dir := setupEnv(t)
	cards := filepath.Join(dir, "cards")
	writeFile(t, filepath.Join(cards, "a_text.txt"), saraText)
	writeFile(t, filepath.Join(cards, "b_text.txt"), ahmedText)
	writeFile(t, filepath.Join(cards, "c_text.txt"), saraText)
	writeFile(t, filepath.Join(cards, ".hidden.txt"), ahmedText)

	combined := filepath.Join(dir, "all.xlsx")
	out, err := runCLI(t, "batch", "--dir", cards, "--out", combined, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Files processed: 2")
	assert.Contains(t, out, "Duplicates:      1")

	rows := sheetRows(t, combined)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sara Lee", rows[1][0])
	assert.Equal(t, "Ahmed Khan", rows[2][0])

	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{DSN: "file:" + filepath.Join(dir, "contacts.db")}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	runs, err := store.ListRuns(ctx, 10, 0)
	store.Close()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	jsonOut := filepath.Join(dir, "run.json")
	_, err = runCLI(t, "export", "--run-id", runs[0].ID.String(), "--out", jsonOut, "--json")
	require.NoError(t, err)
	b, err := os.ReadFile(jsonOut)
	require.NoError(t, err)
	var doc export.ContactsDocument
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, runs[0].ID.String(), doc.RunID)
	assert.Equal(t, 1, doc.Count)

	_, err = runCLI(t, "export", "--run-id", uuid.NewString(), "--out", filepath.Join(dir, "none.xlsx"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBatch_CancelledWritesNothing(t *testing.T) {
	dir := setupEnv(t)
	cards := filepath.Join(dir, "cards")
	writeFile(t, filepath.Join(cards, "a_text.txt"), saraText)
	combined := filepath.Join(dir, "all.xlsx")

	t.Cleanup(func() { slog.SetDefault(slog.New(slog.DiscardHandler)) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &BatchCmd{Dir: cards, Out: combined, Workers: 1}
	err := cmd.Run(ctx, &Globals{NoStore: true})
	require.Error(t, err)
	assert.NoFileExists(t, combined)
}

func TestCollectBatch(t *testing.T) {
	sara := entity.NewContact()
	sara.Name = "Sara Lee"
	ahmed := entity.NewContact()
	ahmed.Name = "Ahmed Khan"

	items := []batchItem{
		{order: 2, contacts: []entity.Contact{ahmed}},
		{order: 0, contacts: []entity.Contact{sara}},
	}
	contacts, failures := collectBatch(items, 4)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Sara Lee", contacts[0].Name)
	assert.Equal(t, "Ahmed Khan", contacts[1].Name)
	assert.Equal(t, 2, failures, "unfinished slots count as failures")

	contacts, failures = collectBatch([]batchItem{{order: 0, err: errors.New("boom")}}, 1)
	assert.Empty(t, contacts)
	assert.Equal(t, 1, failures)
}

func TestExport_RequiresStore(t *testing.T) {
	setupEnv(t)
	_, err := runCLI(t, "--no-store", "export", "--run-id", uuid.NewString(), "--out", "x.xlsx")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = runCLI(t, "export", "--run-id", "nope", "--out", "x.xlsx")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "cards_contacts.xlsx", defaultOutput("/tmp/in/cards.zip"))
	assert.Equal(t, "/x/out.json", jsonPath("/x/out.xlsx"))
}
