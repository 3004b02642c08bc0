package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/assemble"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/extract"
	"github.com/dgallion1/docrank/internal/pipeline"
)

var (
	processPersona  string
	processTask     string
	processInput    string
	processOut      string
	processTopK     int
	processTopKSubs int
)

var processCmd = &cobra.Command{
	Use:   "process [dir]",
	Short: "Rank one document collection",
	Long: `Process ranks the documents in a collection directory.

With a run description (challenge1b_input.json or input.json in the
directory, or --input), the document list, persona and task come from
the file and the output lands next to it. Without one, every supported
file in the directory is ranked and --persona and --task are required.

Examples:
  docrank process ./collection1
  docrank process ./docs -p "Student" -t "find an overview" -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processPersona, "persona", "p", "", "persona role (overrides the run description)")
	processCmd.Flags().StringVarP(&processTask, "task", "t", "", "job to be done (overrides the run description)")
	processCmd.Flags().StringVar(&processInput, "input", "", "run description JSON path")
	processCmd.Flags().StringVarP(&processOut, "out", "o", "", "output path, - for stdout")
	processCmd.Flags().IntVar(&processTopK, "top-k", 0, "sections to select (0 = configured default)")
	processCmd.Flags().IntVar(&processTopKSubs, "top-k-subsections", 0, "subsections per section (0 = configured default)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	inputPath := processInput
	if inputPath == "" {
		inputPath = findRunInput(dir)
	}

	a := rankArgs{
		persona:  processPersona,
		task:     processTask,
		topK:     processTopK,
		topKSubs: processTopKSubs,
	}
	if inputPath != "" {
		in, err := pipeline.LoadRunInput(inputPath)
		if err != nil {
			return err
		}
		a.docs, a.warnings = in.ResolveDocuments(dir)
		a.filenames = in.Filenames()
		if a.persona == "" {
			a.persona = in.Persona.Role
		}
		if a.task == "" {
			a.task = in.Job.Task
		}
	} else {
		if a.persona == "" || a.task == "" {
			return fmt.Errorf("--persona and --task are required without a run description")
		}
		a.docs, err = readSupportedDir(dir)
		if err != nil {
			return err
		}
		for _, d := range a.docs {
			a.filenames = append(a.filenames, d.Filename)
		}
	}

	result, err := rankDocuments(cmd.Context(), cfg, log, a)
	if err != nil {
		return err
	}

	out := processOut
	if out == "" {
		if inputPath != "" {
			out = filepath.Join(filepath.Dir(inputPath), "challenge1b_output.json")
		} else {
			out = "-"
		}
	}
	return writeResult(result, out)
}

// rankArgs is one collection run: the documents, the query inputs, and
// any warnings collected while resolving the documents.
type rankArgs struct {
	docs      []pipeline.Document
	filenames []string
	persona   string
	task      string
	topK      int
	topKSubs  int
	warnings  []string
}

func rankDocuments(ctx context.Context, cfg config.Config, log *slog.Logger, a rankArgs) (*assemble.Result, error) {
	newEmb, _ := newEmbedderFactory(cfg)
	session, err := pipeline.NewSession(ctx, pipeline.SessionOptions{
		Config:   cfg,
		Embedder: newEmb(),
		Log:      log,
	}, a.docs)
	if err != nil {
		return nil, err
	}

	opts := session.RankOptions()
	if a.topK > 0 {
		opts.TopKSections = a.topK
	}
	if a.topKSubs > 0 {
		opts.TopKSubsections = a.topKSubs
	}

	ranking, err := session.Rank(ctx, a.persona, a.task, opts)
	if err != nil {
		return nil, err
	}

	meta := assemble.NewMetadata(a.filenames, a.persona, a.task)
	return assemble.Assemble(meta, ranking, append(a.warnings, session.Warnings...)), nil
}

// findRunInput locates a run description inside dir, if any.
func findRunInput(dir string) string {
	for _, name := range []string{"challenge1b_input.json", "input.json"} {
		path := filepath.Join(dir, name)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
	}
	return ""
}

// readSupportedDir loads every supported file in dir, in name order.
func readSupportedDir(dir string) ([]pipeline.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var docs []pipeline.Document
	for _, e := range entries {
		if e.IsDir() || !extract.IsSupportedExtension(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		docs = append(docs, pipeline.Document{Filename: e.Name(), Data: data})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no supported documents in %s", dir)
	}
	return docs, nil
}

func writeResult(result *assemble.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
