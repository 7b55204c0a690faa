package differ

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiffer() *LineDiffer {
	return NewLineDiffer(config.NewDefaultDiffConfig())
}

func TestLineDiffer_AddedLine(t *testing.T) {
	result, err := newTestDiffer().Diff("User-agent: *", "User-agent: *\nDisallow: /")
	require.NoError(t, err)

	assert.False(t, result.Identical())
	assert.Equal(t, "1 line(s) added, 0 line(s) removed", result.Summary())
	require.Len(t, result.Rows, 2)
	assert.Equal(t, RowEqual, result.Rows[0].Kind)
	assert.Equal(t, DiffRow{Kind: RowAdded, NewLineNo: 2, NewText: "Disallow: /"}, result.Rows[1])
}

// withoutSegments drops the inline segments so rows can be compared by line.
func withoutSegments(rows []DiffRow) []DiffRow {
	out := make([]DiffRow, len(rows))
	for i, row := range rows {
		row.OldSegments, row.NewSegments = nil, nil
		out[i] = row
	}
	return out
}

func joinSegments(segs []Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.Text)
	}
	return b.String()
}

func TestLineDiffer_Rows(t *testing.T) {
	oldText := "User-agent: *\nDisallow: /admin\nDisallow: /tmp\n"
	newText := "User-agent: *\nDisallow: /private\nDisallow: /tmp\nSitemap: https://a.test/s.xml\n"

	for _, cleanup := range []bool{true, false} {
		t.Run(fmt.Sprintf("semantic_cleanup=%v", cleanup), func(t *testing.T) {
			cfg := config.NewDefaultDiffConfig()
			cfg.SemanticCleanup = cleanup

			result, err := NewLineDiffer(cfg).Diff(oldText, newText)
			require.NoError(t, err)

			expected := []DiffRow{
				{Kind: RowEqual, OldLineNo: 1, OldText: "User-agent: *", NewLineNo: 1, NewText: "User-agent: *"},
				{Kind: RowModified, OldLineNo: 2, OldText: "Disallow: /admin", NewLineNo: 2, NewText: "Disallow: /private"},
				{Kind: RowEqual, OldLineNo: 3, OldText: "Disallow: /tmp", NewLineNo: 3, NewText: "Disallow: /tmp"},
				{Kind: RowAdded, NewLineNo: 4, NewText: "Sitemap: https://a.test/s.xml"},
			}
			assert.Equal(t, expected, withoutSegments(result.Rows))
			assert.Equal(t, 2, result.LinesAdded)
			assert.Equal(t, 1, result.LinesRemoved)
		})
	}
}

func TestLineDiffer_UnchangedLinesBetweenEditsStayEqual(t *testing.T) {
	result, err := newTestDiffer().Diff("a\nkeep\nb\nkeep too\nc\n", "x\nkeep\ny\nkeep too\nz\n")
	require.NoError(t, err)

	kinds := make([]RowKind, len(result.Rows))
	for i, row := range result.Rows {
		kinds[i] = row.Kind
	}
	assert.Equal(t, []RowKind{RowModified, RowEqual, RowModified, RowEqual, RowModified}, kinds)
	assert.Equal(t, "3 line(s) added, 3 line(s) removed", result.Summary())
}

func TestLineDiffer_InlineSegments(t *testing.T) {
	result, err := newTestDiffer().Diff("Disallow: /admin\n", "Disallow: /private\n")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	require.Equal(t, RowModified, row.Kind)
	assert.Equal(t, row.OldText, joinSegments(row.OldSegments))
	assert.Equal(t, row.NewText, joinSegments(row.NewSegments))
	assert.Equal(t, Segment{Text: "Disallow: /"}, row.OldSegments[0])
	assert.Equal(t, Segment{Text: "Disallow: /"}, row.NewSegments[0])
	assert.True(t, hasChanged(row.OldSegments))
	assert.True(t, hasChanged(row.NewSegments))
}

func TestLineDiffer_NoSegmentsOutsideModifiedRows(t *testing.T) {
	result, err := newTestDiffer().Diff("a\n", "a\nb\n")
	require.NoError(t, err)

	for _, row := range result.Rows {
		assert.Nil(t, row.OldSegments)
		assert.Nil(t, row.NewSegments)
	}
}

func hasChanged(segs []Segment) bool {
	for _, seg := range segs {
		if seg.Changed {
			return true
		}
	}
	return false
}

func TestLineDiffer_RemovedLines(t *testing.T) {
	result, err := newTestDiffer().Diff("a\nb\nc\n", "a\n")
	require.NoError(t, err)

	require.Len(t, result.Rows, 3)
	assert.Equal(t, RowRemoved, result.Rows[1].Kind)
	assert.Equal(t, 0, result.Rows[1].NewLineNo)
	assert.Equal(t, 3, result.Rows[2].OldLineNo)
	assert.Equal(t, 2, result.LinesRemoved)
}

func TestLineDiffer_Identical(t *testing.T) {
	result, err := newTestDiffer().Diff("same\n", "same\n")
	require.NoError(t, err)
	assert.True(t, result.Identical())
}

func TestLineDiffer_TooLarge(t *testing.T) {
	cfg := config.NewDefaultDiffConfig()
	cfg.MaxDiffFileSizeMB = 1
	huge := strings.Repeat("x", 1024*1024+1)

	_, err := NewLineDiffer(cfg).Diff("", huge)
	assert.Error(t, err)
}

func TestRowKindString(t *testing.T) {
	assert.Equal(t, "modified", RowModified.String())
	assert.Equal(t, "equal", RowEqual.String())
}
