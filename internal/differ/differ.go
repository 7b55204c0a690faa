package differ

import (
	"fmt"
	"strings"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// RowKind describes one row of a side-by-side diff.
type RowKind int

const (
	RowEqual RowKind = iota
	RowAdded
	RowRemoved
	RowModified
)

// String returns the CSS-friendly name of the row kind.
func (k RowKind) String() string {
	switch k {
	case RowAdded:
		return "added"
	case RowRemoved:
		return "removed"
	case RowModified:
		return "modified"
	default:
		return "equal"
	}
}

// Segment is a run of characters inside a modified line.
type Segment struct {
	Text    string
	Changed bool
}

// DiffRow pairs a line of the old content with a line of the new content.
// Line numbers are 1-based; 0 means the side is empty.
// The segment slices are set only on RowModified rows and concatenate to the line text.
type DiffRow struct {
	Kind        RowKind
	OldLineNo   int
	OldText     string
	NewLineNo   int
	NewText     string
	OldSegments []Segment
	NewSegments []Segment
}

// DiffResult is a line diff laid out for side-by-side display.
type DiffResult struct {
	Rows         []DiffRow
	LinesAdded   int
	LinesRemoved int
}

// Identical reports whether no line was added or removed.
func (r *DiffResult) Identical() bool {
	return r.LinesAdded == 0 && r.LinesRemoved == 0
}

// Summary is a one-line description such as "2 line(s) added, 1 line(s) removed".
func (r *DiffResult) Summary() string {
	return fmt.Sprintf("%d line(s) added, %d line(s) removed", r.LinesAdded, r.LinesRemoved)
}

// LineDiffer compares two texts line by line.
type LineDiffer struct {
	dmp             *diffmatchpatch.DiffMatchPatch
	semanticCleanup bool
	maxBytes        int
}

// NewLineDiffer creates a LineDiffer from the diff configuration.
func NewLineDiffer(cfg config.DiffConfig) *LineDiffer {
	return &LineDiffer{
		dmp:             diffmatchpatch.New(),
		semanticCleanup: cfg.SemanticCleanup,
		maxBytes:        cfg.MaxDiffFileSizeMB * 1024 * 1024,
	}
}

// Diff computes the side-by-side line diff of oldText and newText.
func (d *LineDiffer) Diff(oldText, newText string) (*DiffResult, error) {
	if d.maxBytes > 0 && (len(oldText) > d.maxBytes || len(newText) > d.maxBytes) {
		return nil, common.NewValidationError("content", max(len(oldText), len(newText)),
			fmt.Sprintf("content too large for a detailed diff (limit: %d bytes)", d.maxBytes))
	}

	// A missing final newline would otherwise turn the last line into a modification.
	encodedOld, encodedNew, lines := d.dmp.DiffLinesToChars(terminated(oldText), terminated(newText))
	// Each encoded rune stands for a whole line, so semantic cleanup must not run here:
	// it would fold unchanged lines into the surrounding edits.
	diffs := d.dmp.DiffCharsToLines(d.dmp.DiffMain(encodedOld, encodedNew, false), lines)

	result := buildRows(diffs)
	for i := range result.Rows {
		if row := &result.Rows[i]; row.Kind == RowModified {
			row.OldSegments, row.NewSegments = d.inlineSegments(row.OldText, row.NewText)
		}
	}
	return result, nil
}

// inlineSegments marks which characters of a modified line pair changed.
func (d *LineDiffer) inlineSegments(oldLine, newLine string) (oldSegs, newSegs []Segment) {
	diffs := d.dmp.DiffMain(oldLine, newLine, false)
	if d.semanticCleanup {
		diffs = d.dmp.DiffCleanupSemantic(diffs)
	}

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			oldSegs = append(oldSegs, Segment{Text: diff.Text})
			newSegs = append(newSegs, Segment{Text: diff.Text})
		case diffmatchpatch.DiffDelete:
			oldSegs = append(oldSegs, Segment{Text: diff.Text, Changed: true})
		case diffmatchpatch.DiffInsert:
			newSegs = append(newSegs, Segment{Text: diff.Text, Changed: true})
		}
	}
	return oldSegs, newSegs
}

// buildRows lays out line diffs side by side. A deletion directly followed by an
// insertion is shown as modified rows, paired line by line.
func buildRows(diffs []diffmatchpatch.Diff) *DiffResult {
	result := &DiffResult{}
	oldNo, newNo := 0, 0

	var pendingRemoved []string
	flushRemoved := func(inserted []string) {
		paired := min(len(pendingRemoved), len(inserted))
		for i := 0; i < paired; i++ {
			oldNo++
			newNo++
			result.Rows = append(result.Rows, DiffRow{Kind: RowModified, OldLineNo: oldNo, OldText: pendingRemoved[i], NewLineNo: newNo, NewText: inserted[i]})
		}
		for _, line := range pendingRemoved[paired:] {
			oldNo++
			result.Rows = append(result.Rows, DiffRow{Kind: RowRemoved, OldLineNo: oldNo, OldText: line})
		}
		for _, line := range inserted[paired:] {
			newNo++
			result.Rows = append(result.Rows, DiffRow{Kind: RowAdded, NewLineNo: newNo, NewText: line})
		}
		pendingRemoved = nil
	}

	for _, diff := range diffs {
		lines := splitLines(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			result.LinesRemoved += len(lines)
			pendingRemoved = append(pendingRemoved, lines...)
		case diffmatchpatch.DiffInsert:
			result.LinesAdded += len(lines)
			flushRemoved(lines)
		default:
			flushRemoved(nil)
			for _, line := range lines {
				oldNo++
				newNo++
				result.Rows = append(result.Rows, DiffRow{Kind: RowEqual, OldLineNo: oldNo, OldText: line, NewLineNo: newNo, NewText: line})
			}
		}
	}
	flushRemoved(nil)

	return result
}

func terminated(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
