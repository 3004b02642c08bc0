package passage

import "testing"

func TestSortRuns(t *testing.T) {
	runs := []TextRun{
		{Text: "p2 top", Page: 2, Y: 10},
		{Text: "p1 bottom", Page: 1, Y: 700},
		{Text: "p1 right", Page: 1, Y: 100, X: 200},
		{Text: "p1 left", Page: 1, Y: 100, X: 50},
		{Text: "p1 top", Page: 1, Y: 10},
	}

	SortRuns(runs)

	want := []string{"p1 top", "p1 left", "p1 right", "p1 bottom", "p2 top"}
	for i, w := range want {
		if runs[i].Text != w {
			t.Errorf("position %d: expected %q, got %q", i, w, runs[i].Text)
		}
	}
}

func TestSortRunsStable(t *testing.T) {
	runs := []TextRun{
		{Text: "first", Page: 1, Y: 50, X: 10},
		{Text: "second", Page: 1, Y: 50, X: 10},
		{Text: "third", Page: 1, Y: 50, X: 10},
	}

	SortRuns(runs)

	want := []string{"first", "second", "third"}
	for i, w := range want {
		if runs[i].Text != w {
			t.Errorf("position %d: expected %q, got %q", i, w, runs[i].Text)
		}
	}
}
