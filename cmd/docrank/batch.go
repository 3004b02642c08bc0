package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch [root]",
	Short: "Process every collection under a directory",
	Long: `Batch scans root for subdirectories containing a run description
(challenge1b_input.json or input.json) and processes each one, writing
challenge1b_output.json into the collection directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read root: %w", err)
	}

	processed := 0
	var failed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		inputPath := findRunInput(dir)
		if inputPath == "" {
			continue
		}

		log.Info("processing collection", "dir", dir)
		in, err := pipeline.LoadRunInput(inputPath)
		if err != nil {
			log.Error("collection failed", "dir", dir, "error", err)
			failed = append(failed, e.Name())
			continue
		}
		docs, warnings := in.ResolveDocuments(dir)
		result, err := rankDocuments(cmd.Context(), cfg, log, rankArgs{
			docs:      docs,
			filenames: in.Filenames(),
			persona:   in.Persona.Role,
			task:      in.Job.Task,
			warnings:  warnings,
		})
		if err != nil {
			log.Error("collection failed", "dir", dir, "error", err)
			failed = append(failed, e.Name())
			continue
		}
		if err := writeResult(result, filepath.Join(dir, "challenge1b_output.json")); err != nil {
			log.Error("collection failed", "dir", dir, "error", err)
			failed = append(failed, e.Name())
			continue
		}
		processed++
	}

	if processed == 0 && len(failed) == 0 {
		return fmt.Errorf("no collections found under %s", root)
	}
	log.Info("batch complete", "processed", processed, "failed", len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d collection(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}
