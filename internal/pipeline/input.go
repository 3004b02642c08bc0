package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunInput is the JSON run description consumed by the process and
// batch commands: a document list plus the persona and job to be done.
type RunInput struct {
	Documents []RunDocument `json:"documents"`
	Persona   RunPersona    `json:"persona"`
	Job       RunJob        `json:"job_to_be_done"`
}

// RunDocument names one input file. Title is optional display text
// carried through from the run description.
type RunDocument struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

type RunPersona struct {
	Role string `json:"role"`
}

type RunJob struct {
	Task string `json:"task"`
}

// LoadRunInput reads and validates a run description file.
func LoadRunInput(path string) (*RunInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run input: %w", err)
	}
	var in RunInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(in.Documents) == 0 {
		return nil, fmt.Errorf("%s: no documents listed", filepath.Base(path))
	}
	for i, d := range in.Documents {
		if d.Filename == "" {
			return nil, fmt.Errorf("%s: document %d has no filename", filepath.Base(path), i)
		}
	}
	return &in, nil
}

// Filenames returns the listed document names in input order.
func (in *RunInput) Filenames() []string {
	names := make([]string, len(in.Documents))
	for i, d := range in.Documents {
		names[i] = d.Filename
	}
	return names
}

// ResolveDocuments reads the listed files from dir. A PDFs
// subdirectory is preferred when present, matching the collection
// layout. Missing or unreadable files become warnings, not errors.
func (in *RunInput) ResolveDocuments(dir string) ([]Document, []string) {
	root := dir
	if fi, err := os.Stat(filepath.Join(dir, "PDFs")); err == nil && fi.IsDir() {
		root = filepath.Join(dir, "PDFs")
	}

	var docs []Document
	var warnings []string
	for _, d := range in.Documents {
		data, err := os.ReadFile(filepath.Join(root, d.Filename))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("read %s: %v", d.Filename, err))
			continue
		}
		docs = append(docs, Document{Filename: d.Filename, Data: data})
	}
	return docs, warnings
}
