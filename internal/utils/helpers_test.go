package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contacts-extractor/constants"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

func TestContactsStructRoundTrip(t *testing.T) {
	c := entity.NewContact()
	c.Name = "Ahmed Khan"
	c.MobilePhone = "+971501234567"

	s, err := NewStruct(map[string]any{"contacts": ContactsList([]entity.Contact{c})})
	require.NoError(t, err)

	got := ContactsFromStruct(s)
	require.Len(t, got, 1)
	assert.Equal(t, c, got[0])
}

func TestContactFromStruct_MissingFields(t *testing.T) {
	s, err := NewStruct(map[string]any{"name": "Sara Lee"})
	require.NoError(t, err)

	c := ContactFromStruct(s)
	assert.Equal(t, "Sara Lee", c.Name)
	assert.Equal(t, constants.NotAvailable, c.Email)
}

func TestRunMap(t *testing.T) {
	method := "pdf-text"
	fin := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &entity.ExtractionRun{ID: uuid.New(), Status: "PARSED_OK", Method: &method, Pages: 3, StartedAt: fin, FinishedAt: &fin}

	s, err := NewStruct(RunMap(r))
	require.NoError(t, err)
	assert.Equal(t, r.ID.String(), StructString(s, "id"))
	assert.Equal(t, "pdf-text", StructString(s, "method"))
	assert.Equal(t, 3, StructInt(s, "pages"))
	assert.Equal(t, "2026-01-02T03:04:05Z", StructString(s, "finished_at"))
	assert.Equal(t, "", StructString(s, "error_message"))
}

func TestStructAccessors_NilSafe(t *testing.T) {
	assert.Equal(t, "", StructString(nil, "x"))
	assert.False(t, StructBool(nil, "x"))
	assert.Equal(t, 0, StructInt(nil, "x"))
	assert.Empty(t, ContactsFromStruct(nil))
}
