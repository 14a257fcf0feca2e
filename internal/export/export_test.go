package export

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contacts-extractor/constants"
	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

func testContacts() []entity.Contact {
	a := entity.NewContact()
	a.Name = "Ahmed Khan"
	a.Title = "Managing Director"
	a.Company = "Emaar Properties PJSC"
	a.Email = "ahmed.khan@emaar.ae"
	a.MobilePhone = "+971501234567"
	a.Location = strings.Repeat("Downtown Dubai ", 6)

	b := entity.NewContact()
	b.Name = "Sara Lee"
	b.Title = "   " // blank cells are written as the sentinel
	return []entity.Contact{a, b}
}

func newService(runs repository.RunRepository) *Service {
	return NewService(runs, slog.New(slog.DiscardHandler))
}

func TestContactsXLSX(t *testing.T) {
	b, err := newService(nil).ContactsXLSX(testContacts())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetContacts}, f.GetSheetList())

	rows, err := f.GetRows(SheetContacts)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, constants.ContactHeaders, rows[0])
	assert.Equal(t, "Ahmed Khan", rows[1][0])
	assert.Equal(t, "+971501234567", rows[1][4])
	assert.Equal(t, constants.NotAvailable, rows[2][1])
	assert.Equal(t, constants.NotAvailable, rows[2][7])

	// Name: max("Ahmed Khan")=10 -> 12; Location capped at 50.
	w, err := f.GetColWidth(SheetContacts, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(12), w)
	w, err = f.GetColWidth(SheetContacts, "H")
	require.NoError(t, err)
	assert.Equal(t, float64(50), w)

	styleID, err := f.GetCellStyle(SheetContacts, "C1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestContactsXLSX_Empty(t *testing.T) {
	b, err := newService(nil).ContactsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetContacts)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestContactsJSON(t *testing.T) {
	b, err := newService(nil).ContactsJSON(ContactsDocument{Source: "cards.pdf", Contacts: testContacts()[:1]})
	require.NoError(t, err)

	var doc ContactsDocument
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, "Emaar Properties PJSC", doc.Contacts[0].Company)

	empty, err := newService(nil).ContactsJSON(ContactsDocument{})
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"contacts": []`)
}

func TestContactsJSON_RejectsBlankField(t *testing.T) {
	c := entity.NewContact()
	c.Name = "Sara Lee"
	c.Email = ""

	_, err := newService(nil).ContactsJSON(ContactsDocument{Contacts: []entity.Contact{c}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json does not match schema")
}

func TestValidateJSONAgainstSchema_BadJSON(t *testing.T) {
	err := ValidateJSONAgainstSchema(BuildContactsJSONSchema(), []byte("{"))
	require.Error(t, err)
}

func TestExportRun(t *testing.T) {
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{DSN: "file:" + filepath.Join(t.TempDir(), "x.db")}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	run, err := store.StartRun(ctx, repository.NewRun{SourcePath: "cards.pdf", SourceType: constants.PDF, ContentHash: "h"})
	require.NoError(t, err)
	contacts := testContacts()
	contacts[1].Title = constants.NotAvailable
	require.NoError(t, store.FinishSuccess(ctx, run.ID, contacts))

	svc := newService(store)
	b, err := svc.ExportRunJSON(ctx, run.ID)
	require.NoError(t, err)
	var doc ContactsDocument
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, run.ID.String(), doc.RunID)
	assert.Equal(t, "cards.pdf", doc.Source)
	require.Len(t, doc.Contacts, 2)
	assert.Equal(t, "Sara Lee", doc.Contacts[1].Name)

	x, err := svc.ExportRunXLSX(ctx, run.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, x)

	out := filepath.Join(t.TempDir(), "nested", "run.xlsx")
	require.NoError(t, svc.SaveXLSX(out, doc.Contacts))
	assert.FileExists(t, out)

	_, err = svc.ExportRunJSON(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
