package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contacts-extractor/constants"
	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "contacts.db")
	s, err := Open(ctx, Config{Driver: DriverSQLite, DSN: dsn}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func sampleContacts() []entity.Contact {
	a := entity.NewContact()
	a.Name, a.Email = "Ahmed Khan", "ahmed.khan@emaar.ae"
	b := entity.NewContact()
	b.Name, b.Title = "Sara Lee", "Head Of Sales"
	return []entity.Contact{a, b}
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run, err := s.StartRun(ctx, NewRun{SourcePath: "/in/cards.pdf", SourceType: constants.PDF, ContentHash: "abc"})
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusQueued), run.Status)

	require.NoError(t, s.MarkRunning(ctx, run.ID))
	require.NoError(t, s.MarkTextExtracted(ctx, run.ID, TextOutcome{Method: "pdf-text", Pages: 2, TextBytes: 120}))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusTextOK), got.Status)
	require.NotNil(t, got.Method)
	assert.Equal(t, "pdf-text", *got.Method)
	assert.Equal(t, 2, got.Pages)
	assert.Nil(t, got.FinishedAt)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)

	require.NoError(t, s.FinishSuccess(ctx, run.ID, sampleContacts()))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusParsedOK), got.Status)
	assert.Equal(t, 2, got.ContactCount)
	require.NotNil(t, got.FinishedAt)

	stored, err := s.ListContacts(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 0, stored[0].Position)
	assert.Equal(t, "Ahmed Khan", stored[0].Name)
	assert.Equal(t, constants.NotAvailable, stored[0].Title)
	assert.Equal(t, "Sara Lee", stored[1].Name)
	assert.Equal(t, run.ID, stored[1].RunID)
}

func TestStore_FinishSuccessManyContacts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run, err := s.StartRun(ctx, NewRun{SourcePath: "/in/expo.zip", SourceType: constants.ZIP, ContentHash: "many"})
	require.NoError(t, err)

	// 4000 rows at 10 columns is past sqlite's bind parameter limit for one statement.
	contacts := make([]entity.Contact, 4000)
	for i := range contacts {
		contacts[i] = entity.NewContact()
		contacts[i].Name = fmt.Sprintf("Card %04d", i)
	}
	require.NoError(t, s.FinishSuccess(ctx, run.ID, contacts))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusParsedOK), got.Status)
	assert.Equal(t, 4000, got.ContactCount)

	stored, err := s.ListContacts(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stored, 4000)
	assert.Equal(t, "Card 0000", stored[0].Name)
	assert.Equal(t, 3999, stored[3999].Position)
	assert.Equal(t, "Card 3999", stored[3999].Name)
}

func TestStore_FinishFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run, err := s.StartRun(ctx, NewRun{SourcePath: "/in/x.zip", SourceType: constants.ZIP, ContentHash: "h1"})
	require.NoError(t, err)
	require.NoError(t, s.FinishFailure(ctx, run.ID, "no images found in archive"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusFailed), got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "no images found in archive", *got.ErrorMessage)

	stored, err := s.ListContacts(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	missing := uuid.New()

	_, err := s.GetRun(ctx, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = s.ListContacts(ctx, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	assert.True(t, errors.Is(s.MarkRunning(ctx, missing), common.ErrNotFound))
	assert.Error(t, s.FinishSuccess(ctx, missing, sampleContacts()))

	_, err = s.GetRunByHash(ctx, "nope")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestStore_GetRunByHashAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.StartRun(ctx, NewRun{SourcePath: "/a.pdf", SourceType: constants.PDF, ContentHash: "same"})
	require.NoError(t, err)
	_, err = s.StartRun(ctx, NewRun{SourcePath: "/b.pdf", SourceType: constants.PDF, ContentHash: "other"})
	require.NoError(t, err)

	got, err := s.GetRunByHash(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	runs, err := s.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	page, err := s.ListRuns(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestStore_HealthCheck(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.HealthCheck(context.Background(), time.Second))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, nil)
	require.Error(t, err)
}

func TestScanTime(t *testing.T) {
	want := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	for _, v := range []any{
		want,
		"2026-10-19 08:30:00+00:00",
		"2026-10-19 08:30:00 +0000 UTC",
		"2026-10-19T08:30:00Z",
		[]byte("2026-10-19 08:30:00"),
	} {
		got, err := scanTime(v)
		require.NoError(t, err, "%v", v)
		assert.True(t, want.Equal(got), "%v -> %v", v, got)
	}
	_, err := scanTime(3.14)
	assert.Error(t, err)
}
