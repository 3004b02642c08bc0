package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/tui"
)

var (
	tuiPersona string
	tuiTopK    int
)

var tuiCmd = &cobra.Command{
	Use:   "tui [dir]",
	Short: "Browse rankings interactively",
	Long: `Tui recognizes the documents in a directory once, then ranks them
against each task entered at the prompt. Arrow keys move between
sections, Ctrl+C quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiPersona, "persona", "p", "", "persona role (overrides the run description)")
	tuiCmd.Flags().IntVar(&tuiTopK, "top-k", 0, "sections to select (0 = configured default)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The TUI owns the terminal; keep the session quiet.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	persona := tuiPersona
	var docs []pipeline.Document
	var resolveWarnings []string
	if inputPath := findRunInput(dir); inputPath != "" {
		in, err := pipeline.LoadRunInput(inputPath)
		if err != nil {
			return err
		}
		docs, resolveWarnings = in.ResolveDocuments(dir)
		if persona == "" {
			persona = in.Persona.Role
		}
	} else {
		docs, err = readSupportedDir(dir)
		if err != nil {
			return err
		}
	}
	if persona == "" {
		return fmt.Errorf("--persona is required without a run description")
	}

	newEmb, _ := newEmbedderFactory(cfg)
	session, err := pipeline.NewSession(cmd.Context(), pipeline.SessionOptions{
		Config:   cfg,
		Embedder: newEmb(),
		Log:      log,
	}, docs)
	if err != nil {
		return err
	}

	opts := session.RankOptions()
	if tuiTopK > 0 {
		opts.TopKSections = tuiTopK
	}

	summary := fmt.Sprintf("%d documents, %d sections, %d warnings",
		len(session.Documents), len(session.Sections),
		len(resolveWarnings)+len(session.Warnings))

	m := tui.New(sessionRanker{
		ctx:     cmd.Context(),
		session: session,
		persona: persona,
		opts:    opts,
	}, persona, summary)
	_, err = tea.NewProgram(m).Run()
	return err
}

// sessionRanker adapts a prepared session to the TUI port.
type sessionRanker struct {
	ctx     context.Context
	session *pipeline.Session
	persona string
	opts    rank.Options
}

func (r sessionRanker) Rank(task string) (*rank.Ranking, error) {
	return r.session.Rank(r.ctx, r.persona, task, r.opts)
}
