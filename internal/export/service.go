package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

// ContactsDocument is the JSON export shape.
type ContactsDocument struct {
	RunID    string           `json:"run_id,omitempty"`
	Source   string           `json:"source,omitempty"`
	Count    int              `json:"count"`
	Contacts []entity.Contact `json:"contacts"`
}

// Service renders contacts as XLSX workbooks or JSON documents, either from
// memory or from a stored extraction run.
type Service struct {
	runs   repository.RunRepository
	logger *slog.Logger
}

func NewService(runs repository.RunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runs: runs, logger: logger}
}

// ContactsXLSX returns an XLSX workbook (as bytes) with one row per contact.
func (s *Service) ContactsXLSX(contacts []entity.Contact) ([]byte, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, contacts); err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(contacts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// SaveXLSX writes the workbook to path, creating parent directories.
func (s *Service) SaveXLSX(path string, contacts []entity.Contact) error {
	b, err := s.ContactsXLSX(contacts)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// ContactsJSON encodes doc and checks it against the export schema.
func (s *Service) ContactsJSON(doc ContactsDocument) ([]byte, error) {
	if doc.Contacts == nil {
		doc.Contacts = []entity.Contact{}
	}
	doc.Count = len(doc.Contacts)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal contacts: %w", err)
	}
	if err := ValidateJSONAgainstSchema(BuildContactsJSONSchema(), b); err != nil {
		s.logger.Error("export.json.invalid", "run_id", doc.RunID, "error", err)
		return nil, err
	}
	s.logger.Info("export.json.ok", "run_id", doc.RunID, "rows", doc.Count)
	return b, nil
}

// SaveJSON writes the validated JSON document to path.
func (s *Service) SaveJSON(path string, doc ContactsDocument) error {
	b, err := s.ContactsJSON(doc)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// RunDocument loads a stored run and its contacts.
func (s *Service) RunDocument(ctx context.Context, runID uuid.UUID) (ContactsDocument, error) {
	if s.runs == nil {
		return ContactsDocument{}, fmt.Errorf("export: no run repository configured")
	}
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return ContactsDocument{}, err
	}
	stored, err := s.runs.ListContacts(ctx, runID)
	if err != nil {
		return ContactsDocument{}, fmt.Errorf("list contacts: %w", err)
	}
	contacts := make([]entity.Contact, len(stored))
	for i, sc := range stored {
		contacts[i] = sc.Contact
	}
	return ContactsDocument{
		RunID:    run.ID.String(),
		Source:   run.SourcePath,
		Count:    len(contacts),
		Contacts: contacts,
	}, nil
}

// ExportRunXLSX returns the workbook of a stored run.
func (s *Service) ExportRunXLSX(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	doc, err := s.RunDocument(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.ContactsXLSX(doc.Contacts)
}

// ExportRunJSON returns the JSON document of a stored run.
func (s *Service) ExportRunJSON(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	doc, err := s.RunDocument(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.ContactsJSON(doc)
}

func writeFile(path string, b []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
