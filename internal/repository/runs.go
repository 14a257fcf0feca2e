package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/contacts-extractor/constants"
	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

var runColumns = []string{
	"id", "source_path", "source_type", "content_hash", "status", "method",
	"pages", "text_bytes", "contact_count", "error_message", "started_at", "finished_at",
}

var contactColumns = []string{
	"run_id", "position", "name", "title", "company", "email",
	"mobile_phone", "direct_phone", "hq_phone", "location",
}

// NewRun describes the input of an extraction run about to start.
type NewRun struct {
	SourcePath  string
	SourceType  string
	ContentHash string
}

// TextOutcome is what stage 1 recorded about the extracted text.
type TextOutcome struct {
	Method    string
	Pages     int
	TextBytes int
}

// RunRepository is the run lifecycle used by the processor and the services.
type RunRepository interface {
	StartRun(ctx context.Context, in NewRun) (*entity.ExtractionRun, error)
	MarkRunning(ctx context.Context, runID uuid.UUID) error
	MarkTextExtracted(ctx context.Context, runID uuid.UUID, out TextOutcome) error
	FinishSuccess(ctx context.Context, runID uuid.UUID, contacts []entity.Contact) error
	FinishFailure(ctx context.Context, runID uuid.UUID, message string) error
	GetRun(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error)
	GetRunByHash(ctx context.Context, contentHash string) (*entity.ExtractionRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*entity.ExtractionRun, error)
	ListContacts(ctx context.Context, runID uuid.UUID) ([]entity.StoredContact, error)
}

var _ RunRepository = (*Store)(nil)

func (s *Store) StartRun(ctx context.Context, in NewRun) (*entity.ExtractionRun, error) {
	run := &entity.ExtractionRun{
		ID:          uuid.New(),
		SourcePath:  in.SourcePath,
		SourceType:  in.SourceType,
		ContentHash: in.ContentHash,
		Status:      string(constants.RunStatusQueued),
		StartedAt:   time.Now().UTC(),
	}
	q, args := s.builder().Insert(tableRuns).
		Columns("id", "source_path", "source_type", "content_hash", "status", "started_at").
		Values(run.ID.String(), run.SourcePath, run.SourceType, run.ContentHash, run.Status, run.StartedAt).
		Query()
	if err := s.drv.Exec(ctx, q, args, nil); err != nil {
		s.logger.Error("extraction_run start failed", "path", in.SourcePath, "error", err)
		return nil, fmt.Errorf("start run: %w", err)
	}
	s.logger.Info("extraction_run started", "run_id", run.ID, "path", in.SourcePath, "source_type", in.SourceType)
	return run, nil
}

func (s *Store) MarkRunning(ctx context.Context, runID uuid.UUID) error {
	return s.updateRun(ctx, runID, map[string]any{"status": string(constants.RunStatusRunning)})
}

func (s *Store) MarkTextExtracted(ctx context.Context, runID uuid.UUID, out TextOutcome) error {
	return s.updateRun(ctx, runID, map[string]any{
		"status":     string(constants.RunStatusTextOK),
		"method":     out.Method,
		"pages":      out.Pages,
		"text_bytes": out.TextBytes,
	})
}

// contactInsertBatch bounds rows per INSERT so bind parameters stay under the
// sqlite and postgres limits.
const contactInsertBatch = 500

// FinishSuccess stores the run's contacts in order and marks it PARSED_OK, atomically.
func (s *Store) FinishSuccess(ctx context.Context, runID uuid.UUID, contacts []entity.Contact) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func(err error) error {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "run_id", runID, "error", rbErr)
		}
		return err
	}

	for start := 0; start < len(contacts); start += contactInsertBatch {
		end := min(start+contactInsertBatch, len(contacts))
		ins := s.builder().Insert(tableContacts).Columns(contactColumns...)
		for i := start; i < end; i++ {
			vals := []any{runID.String(), i}
			for _, v := range contacts[i].Values() {
				vals = append(vals, v)
			}
			ins.Values(vals...)
		}
		q, args := ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			return rollback(fmt.Errorf("insert contacts %d-%d: %w", start, end-1, err))
		}
	}

	q, args := s.builder().Update(tableRuns).
		Set("status", string(constants.RunStatusParsedOK)).
		Set("contact_count", len(contacts)).
		Set("finished_at", time.Now().UTC()).
		Where(entsql.EQ("id", runID.String())).
		Query()
	var res sql.Result
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		return rollback(fmt.Errorf("finish run: %w", err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return rollback(fmt.Errorf("run %s: %w", runID, common.ErrNotFound))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("extraction_run parsed", "run_id", runID, "contacts", len(contacts))
	return nil
}

func (s *Store) FinishFailure(ctx context.Context, runID uuid.UUID, message string) error {
	if err := s.updateRun(ctx, runID, map[string]any{
		"status":        string(constants.RunStatusFailed),
		"error_message": message,
		"finished_at":   time.Now().UTC(),
	}); err != nil {
		return err
	}
	s.logger.Warn("extraction_run failed", "run_id", runID, "error", message)
	return nil
}

func (s *Store) updateRun(ctx context.Context, runID uuid.UUID, set map[string]any) error {
	u := s.builder().Update(tableRuns)
	for _, col := range runColumns {
		if v, ok := set[col]; ok {
			u.Set(col, v)
		}
	}
	q, args := u.Where(entsql.EQ("id", runID.String())).Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, q, args, &res); err != nil {
		s.logger.Error("extraction_run update failed", "run_id", runID, "error", err)
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error) {
	return s.oneRun(ctx, entsql.EQ("id", runID.String()), runID.String())
}

// GetRunByHash returns the most recent run for the given content hash.
func (s *Store) GetRunByHash(ctx context.Context, contentHash string) (*entity.ExtractionRun, error) {
	return s.oneRun(ctx, entsql.EQ("content_hash", contentHash), contentHash)
}

func (s *Store) oneRun(ctx context.Context, p *entsql.Predicate, key string) (*entity.ExtractionRun, error) {
	b := s.builder()
	q, args := b.Select(runColumns...).From(b.Table(tableRuns)).
		Where(p).
		OrderBy(entsql.Desc("started_at")).
		Limit(1).
		Query()
	runs, err := s.queryRuns(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", key, common.ErrNotFound)
	}
	return runs[0], nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]*entity.ExtractionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	b := s.builder()
	sel := b.Select(runColumns...).From(b.Table(tableRuns)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id")).
		Limit(limit)
	if offset > 0 {
		sel.Offset(offset)
	}
	q, args := sel.Query()
	return s.queryRuns(ctx, q, args)
}

func (s *Store) queryRuns(ctx context.Context, q string, args []any) ([]*entity.ExtractionRun, error) {
	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*entity.ExtractionRun
	for rows.Next() {
		var (
			r                   entity.ExtractionRun
			id                  string
			method, errMsg      sql.NullString
			startedAt, finished any
		)
		if err := rows.Scan(&id, &r.SourcePath, &r.SourceType, &r.ContentHash, &r.Status, &method,
			&r.Pages, &r.TextBytes, &r.ContactCount, &errMsg, &startedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var err error
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		if method.Valid {
			r.Method = &method.String
		}
		if errMsg.Valid {
			r.ErrorMessage = &errMsg.String
		}
		if r.StartedAt, err = scanTime(startedAt); err != nil {
			return nil, err
		}
		if finished != nil {
			t, err := scanTime(finished)
			if err != nil {
				return nil, err
			}
			r.FinishedAt = &t
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ListContacts returns a run's contacts in extraction order.
func (s *Store) ListContacts(ctx context.Context, runID uuid.UUID) ([]entity.StoredContact, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	b := s.builder()
	q, args := b.Select(contactColumns...).From(b.Table(tableContacts)).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy(entsql.Asc("position")).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	out := []entity.StoredContact{}
	for rows.Next() {
		var (
			sc entity.StoredContact
			id string
			c  = &sc.Contact
		)
		if err := rows.Scan(&id, &sc.Position, &c.Name, &c.Title, &c.Company, &c.Email,
			&c.MobilePhone, &c.DirectPhone, &c.HQPhone, &c.Location); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		sc.RunID = runID
		out = append(out, sc)
	}
	return out, rows.Err()
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// scanTime accepts what either driver hands back for a timestamp column.
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	case int64:
		return time.Unix(t, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
