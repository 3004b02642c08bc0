package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRunInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRunInput(t *testing.T) {
	dir := t.TempDir()
	path := writeRunInput(t, dir, "input.json", `{
		"documents": [
			{"filename": "a.pdf", "title": "Doc A"},
			{"filename": "b.pdf"}
		],
		"persona": {"role": "Student"},
		"job_to_be_done": {"task": "find an overview"}
	}`)

	in, err := LoadRunInput(path)
	if err != nil {
		t.Fatalf("LoadRunInput: %v", err)
	}
	if in.Persona.Role != "Student" {
		t.Errorf("expected persona Student, got %q", in.Persona.Role)
	}
	if in.Job.Task != "find an overview" {
		t.Errorf("expected task, got %q", in.Job.Task)
	}
	names := in.Filenames()
	if len(names) != 2 || names[0] != "a.pdf" || names[1] != "b.pdf" {
		t.Errorf("unexpected filenames %v", names)
	}
	if in.Documents[0].Title != "Doc A" {
		t.Errorf("expected title Doc A, got %q", in.Documents[0].Title)
	}
}

func TestLoadRunInputErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadRunInput(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeRunInput(t, dir, "bad.json", `{"documents": [`)
	if _, err := LoadRunInput(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}

	empty := writeRunInput(t, dir, "empty.json", `{"documents": [], "persona": {"role": "X"}}`)
	if _, err := LoadRunInput(empty); err == nil {
		t.Error("expected error for empty document list")
	}

	noName := writeRunInput(t, dir, "noname.json", `{"documents": [{"title": "oops"}]}`)
	if _, err := LoadRunInput(noName); err == nil {
		t.Error("expected error for document without filename")
	}
}

func TestResolveDocuments(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A\n\nBody.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	in := &RunInput{Documents: []RunDocument{{Filename: "a.md"}, {Filename: "gone.md"}}}
	docs, warnings := in.ResolveDocuments(dir)
	if len(docs) != 1 {
		t.Fatalf("expected 1 resolved document, got %d", len(docs))
	}
	if docs[0].Filename != "a.md" || len(docs[0].Data) == 0 {
		t.Errorf("unexpected document %+v", docs[0])
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
}

func TestResolveDocumentsPrefersPDFsDir(t *testing.T) {
	dir := t.TempDir()
	pdfs := filepath.Join(dir, "PDFs")
	if err := os.Mkdir(pdfs, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pdfs, "a.md"), []byte("inside"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("outside"), 0o644); err != nil {
		t.Fatal(err)
	}

	in := &RunInput{Documents: []RunDocument{{Filename: "a.md"}}}
	docs, warnings := in.ResolveDocuments(dir)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if len(docs) != 1 || string(docs[0].Data) != "inside" {
		t.Errorf("expected document from PDFs dir, got %+v", docs)
	}
}
