package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableRuns     = "extraction_runs"
	tableContacts = "contacts"
)

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	ts := "TIMESTAMP"
	if s.dialect == dialect.Postgres {
		ts = "TIMESTAMPTZ"
	}
	b := s.builder()

	runs := b.CreateTable(tableRuns).IfNotExists().
		Columns(
			entsql.Column("id").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("source_path").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("source_type").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("content_hash").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("status").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("method").Type("TEXT"),
			entsql.Column("pages").Type("INTEGER").Attr("NOT NULL DEFAULT 0"),
			entsql.Column("text_bytes").Type("INTEGER").Attr("NOT NULL DEFAULT 0"),
			entsql.Column("contact_count").Type("INTEGER").Attr("NOT NULL DEFAULT 0"),
			entsql.Column("error_message").Type("TEXT"),
			entsql.Column("started_at").Type(ts).Attr("NOT NULL"),
			entsql.Column("finished_at").Type(ts),
		).
		PrimaryKey("id")

	contacts := b.CreateTable(tableContacts).IfNotExists().
		Columns(
			entsql.Column("run_id").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("position").Type("INTEGER").Attr("NOT NULL"),
			entsql.Column("name").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("title").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("company").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("email").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("mobile_phone").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("direct_phone").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("hq_phone").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("location").Type("TEXT").Attr("NOT NULL"),
		).
		PrimaryKey("run_id", "position").
		ForeignKeys(
			entsql.ForeignKey().Columns("run_id").
				Reference(entsql.Reference().Table(tableRuns).Columns("id")).
				OnDelete("CASCADE"),
		)

	stmts := make([]string, 0, 4)
	for _, tb := range []*entsql.TableBuilder{runs, contacts} {
		q, _ := tb.Query()
		stmts = append(stmts, q)
	}
	stmts = append(stmts,
		"CREATE INDEX IF NOT EXISTS idx_runs_content_hash ON extraction_runs (content_hash)",
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON extraction_runs (started_at)",
	)

	for _, q := range stmts {
		if err := s.drv.Exec(ctx, q, []any{}, nil); err != nil {
			s.logger.Error("migration failed", "statement", q, "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.logger.Info("schema migrated", "dialect", s.dialect)
	return nil
}
