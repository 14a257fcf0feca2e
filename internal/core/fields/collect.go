package fields

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

// Collect extracts the contacts of a whole document in page order. Pages whose
// contact has no usable name are dropped. It never fails; a document without
// any named page yields an empty, non-nil slice.
func (e *Extractor) Collect(text string) []entity.Contact {
	start := time.Now()
	pages := Segment(text)
	parsed := make([]entity.Contact, len(pages))

	if e.workers <= 1 || len(pages) < 2 {
		for i, p := range pages {
			parsed[i] = e.ParsePage(p.Lines)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for i, p := range pages {
			g.Go(func() error {
				parsed[i] = e.ParsePage(p.Lines)
				return nil
			})
		}
		_ = g.Wait() // page parsing cannot fail
	}

	contacts := make([]entity.Contact, 0, len(parsed))
	for _, c := range parsed {
		if c.HasName() {
			contacts = append(contacts, c)
		}
	}
	e.logger.Debug("contacts collected",
		"pages", len(pages),
		"contacts", len(contacts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return contacts
}
