package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contacts-extractor/internal/export"
)

func newTestHTTP(t *testing.T) *httptest.Server {
	t.Helper()
	store := newTestStore(t)
	h := NewHTTPHandler(newTestProcessor(t, store), export.NewService(store, discard()), store, store,
		HTTPConfig{UploadDir: t.TempDir(), AllowedOrigins: []string{"https://cards.example.com"}}, discard())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func decodeDocument(t *testing.T, resp *http.Response) export.ContactsDocument {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc export.ContactsDocument
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	return doc
}

func TestHTTP_Healthz(t *testing.T) {
	srv := newTestHTTP(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHTTP_ExtractAndFetchRun(t *testing.T) {
	srv := newTestHTTP(t)

	resp, err := http.Post(srv.URL+"/api/v1/extract?source=desk", "text/plain", strings.NewReader(markedText))
	require.NoError(t, err)
	doc := decodeDocument(t, resp)
	assert.Equal(t, 2, doc.Count)
	assert.Equal(t, "desk", doc.Source)
	require.Len(t, doc.Contacts, 2)
	assert.Equal(t, "Sara Lee", doc.Contacts[0].Name)
	require.NotEmpty(t, doc.RunID)

	resp, err = http.Get(srv.URL + "/api/v1/runs/" + doc.RunID + "/contacts")
	require.NoError(t, err)
	stored := decodeDocument(t, resp)
	assert.Equal(t, doc.Contacts, stored.Contacts)

	resp, err = http.Get(srv.URL + "/api/v1/runs/" + doc.RunID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "PARSED_OK", run["status"])

	resp, err = http.Get(srv.URL + "/api/v1/runs?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list struct {
		Runs []map[string]any `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list.Runs, 1)
}

func TestHTTP_ExtractJSONBody(t *testing.T) {
	srv := newTestHTTP(t)
	body, err := json.Marshal(map[string]string{"text": markedText, "source": "json"})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/v1/extract", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	doc := decodeDocument(t, resp)
	assert.Equal(t, "json", doc.Source)
	assert.Equal(t, 2, doc.Count)
}

func TestHTTP_ExtractXLSX(t *testing.T) {
	srv := newTestHTTP(t)
	resp, err := http.Post(srv.URL+"/api/v1/extract.xlsx", "text/plain", strings.NewReader(markedText))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxMediaType, resp.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sara Lee", rows[1][0])
}

func TestHTTP_UploadTextDump(t *testing.T) {
	srv := newTestHTTP(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "cards_text.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(markedText))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/files", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	doc := decodeDocument(t, resp)
	assert.Equal(t, "cards_text.txt", doc.Source)
	assert.Equal(t, 2, doc.Count)
}

func TestHTTP_Errors(t *testing.T) {
	srv := newTestHTTP(t)

	tests := []struct {
		name   string
		method string
		path   string
		ctype  string
		body   string
		want   int
	}{
		{"empty text", http.MethodPost, "/api/v1/extract", "text/plain", "  ", http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/v1/extract", "application/json", "{", http.StatusBadRequest},
		{"bad run id", http.MethodGet, "/api/v1/runs/abc", "", "", http.StatusBadRequest},
		{"unknown run", http.MethodGet, "/api/v1/runs/6f1f8a8e-52a4-4f3a-9a57-1d1f5a3c0b11/contacts", "", "", http.StatusNotFound},
		{"no file", http.MethodPost, "/api/v1/files", "text/plain", "x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHTTP_UploadUnsupported(t *testing.T) {
	srv := newTestHTTP(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.docx")
	require.NoError(t, err)
	_, err = fw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/files", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
