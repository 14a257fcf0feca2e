package fields

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_Fixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "cards.txt"))
	require.NoError(t, err)

	e := MustNewExtractor(DefaultVocabulary())
	contacts := e.Collect(string(data))

	require.Len(t, contacts, 2)
	assert.Equal(t, "Ahmed Khan", contacts[0].Name)
	assert.Equal(t, "Emaar Properties PJSC", contacts[0].Company)
	assert.Equal(t, "Sara Lee", contacts[1].Name)
	assert.Equal(t, "Head of Sales", contacts[1].Title)
}

func TestCollect_NoMarkers(t *testing.T) {
	e := MustNewExtractor(DefaultVocabulary())

	contacts := e.Collect("John Smith\nsales team\n")
	require.Len(t, contacts, 1)
	assert.Equal(t, "John Smith", contacts[0].Name)

	contacts = e.Collect("just some lowercase text\nwith nothing in it")
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

func TestCollect_EmptyDocument(t *testing.T) {
	e := MustNewExtractor(DefaultVocabulary())

	assert.Empty(t, e.Collect(""))
	assert.Empty(t, e.Collect("\n--- Page 1 ---\n\n--- Page 2 ---\n"))
}

func TestCollect_PreservesPageOrderConcurrently(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 60; i++ {
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		if i%7 == 0 {
			b.WriteString("no name on this page\n")
			continue
		}
		fmt.Fprintf(&b, "Person %d\n", i)
	}

	e := MustNewExtractor(DefaultVocabulary(), WithWorkers(8))
	contacts := e.Collect(b.String())

	var want []string
	for i := 1; i <= 60; i++ {
		if i%7 != 0 {
			want = append(want, fmt.Sprintf("Person %d", i))
		}
	}
	got := make([]string, 0, len(contacts))
	for _, c := range contacts {
		got = append(got, c.Name)
	}
	assert.Equal(t, want, got)
}
