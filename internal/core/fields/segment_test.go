package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	text := "\n--- Page 1 ---\nJane Doe\n  CEO  \n--- Page 2 ---\n   \n\n--- Page 3 ---\nJohn Smith\n"

	pages := Segment(text)
	require.Len(t, pages, 2)
	assert.Equal(t, Page{Number: 1, Lines: []string{"Jane Doe", "CEO"}}, pages[0])
	assert.Equal(t, Page{Number: 2, Lines: []string{"John Smith"}}, pages[1])
}

func TestSegment_NoMarkersIsOneImplicitPage(t *testing.T) {
	pages := Segment("Jane Doe\nSales Manager\n")
	require.Len(t, pages, 1)
	assert.Equal(t, []string{"Jane Doe", "Sales Manager"}, pages[0].Lines)
}

func TestSegment_Empty(t *testing.T) {
	assert.Empty(t, Segment(""))
	assert.Empty(t, Segment("--- Page 1 ---\n\n--- Page 2 ---"))
}

func TestSegment_MultiDigitMarkers(t *testing.T) {
	pages := Segment("--- Page 9 ---\nA\n--- Page 10 ---\nB\n--- Page 123 ---\nC")
	require.Len(t, pages, 3)
	assert.Equal(t, []string{"C"}, pages[2].Lines)
}
