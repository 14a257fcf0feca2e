package utils

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ContactMap is the wire shape of a contact, keyed by its JSON field names.
func ContactMap(c entity.Contact) map[string]any {
	return map[string]any{
		"name":         c.Name,
		"title":        c.Title,
		"company":      c.Company,
		"email":        c.Email,
		"mobile_phone": c.MobilePhone,
		"direct_phone": c.DirectPhone,
		"hq_phone":     c.HQPhone,
		"location":     c.Location,
	}
}

// ContactFromStruct is the inverse of ContactMap. Missing fields become the sentinel.
func ContactFromStruct(s *structpb.Struct) entity.Contact {
	return entity.ContactFromValues([]string{
		StructString(s, "name"),
		StructString(s, "title"),
		StructString(s, "company"),
		StructString(s, "email"),
		StructString(s, "mobile_phone"),
		StructString(s, "direct_phone"),
		StructString(s, "hq_phone"),
		StructString(s, "location"),
	})
}

// ContactsList converts contacts for use as a structpb list value.
func ContactsList(cs []entity.Contact) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = ContactMap(c)
	}
	return out
}

// ContactsFromStruct reads the "contacts" list of s.
func ContactsFromStruct(s *structpb.Struct) []entity.Contact {
	list := s.GetFields()["contacts"].GetListValue()
	out := make([]entity.Contact, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		out = append(out, ContactFromStruct(v.GetStructValue()))
	}
	return out
}

// RunMap is the wire shape of an extraction run.
func RunMap(r *entity.ExtractionRun) map[string]any {
	m := map[string]any{
		"id":            r.ID.String(),
		"source_path":   r.SourcePath,
		"source_type":   r.SourceType,
		"content_hash":  r.ContentHash,
		"status":        r.Status,
		"method":        strOrEmpty(r.Method),
		"pages":         r.Pages,
		"text_bytes":    r.TextBytes,
		"contact_count": r.ContactCount,
		"error_message": strOrEmpty(r.ErrorMessage),
		"started_at":    r.StartedAt.UTC().Format(time.RFC3339),
	}
	if r.FinishedAt != nil {
		m["finished_at"] = r.FinishedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// NewStruct wraps structpb.NewStruct with a clearer error.
func NewStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build response struct: %w", err)
	}
	return s, nil
}

// StructString returns the trimmed string field key of s, or "".
func StructString(s *structpb.Struct, key string) string {
	return strings.TrimSpace(s.GetFields()[key].GetStringValue())
}

// StructBool returns the bool field key of s, or false.
func StructBool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// StructInt returns the numeric field key of s truncated to int, or 0.
func StructInt(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}
