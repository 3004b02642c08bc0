// Package passage defines the document model shared by extraction,
// structure recognition, and ranking: positioned text runs, the
// sections recognized from them, and the subsections inside each
// section.
package passage

import "sort"

// TextRun is one extracted fragment of text with its layout metadata.
// Page numbers are 1-based. Y grows downward in reading order, so a
// larger Y is further down the page regardless of the source format's
// native coordinate system.
type TextRun struct {
	Text     string
	FontSize float64
	Bold     bool
	Page     int
	Y        float64
	X        float64
}

// Subsection is a paragraph-sized span of body text within a section.
// Page is the page of the first run that contributed to it.
type Subsection struct {
	Document string
	Page     int
	Text     string
}

// Section is a heading-delimited region of a document. Title holds the
// heading text, or a synthetic title when the document had no headings
// before this content. Body is the joined text of Subsections.
type Section struct {
	Document    string
	Title       string
	Page        int
	Body        string
	Subsections []Subsection
}

// SortRuns orders runs into reading order: page ascending, then
// vertical position, then horizontal position. The sort is stable so
// runs emitted at identical coordinates keep their extraction order.
func SortRuns(runs []TextRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Page != runs[j].Page {
			return runs[i].Page < runs[j].Page
		}
		if runs[i].Y != runs[j].Y {
			return runs[i].Y < runs[j].Y
		}
		return runs[i].X < runs[j].X
	})
}
