package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quillhq/quill/internal/classifier"
)

func modelCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "model",
		Short: "Train and inspect the text classifier",
	}
	c.AddCommand(modelTrainCmd(), modelInspectCmd())
	return c
}

func modelTrainCmd() *cobra.Command {
	var corpusPath, out string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a naive Bayes model from a YAML corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			corpus, err := classifier.LoadCorpus(corpusPath)
			if err != nil {
				return err
			}
			m, err := corpus.Train()
			if err != nil {
				return err
			}

			p := newPrinter(cmd.ErrOrStderr())
			if out == "-" {
				err = m.Save(cmd.OutOrStdout())
			} else {
				err = writeModel(m, out)
			}
			if err != nil {
				return err
			}
			if out != "-" {
				p.ok("model written to %s", out)
			}
			p.note("%s", m.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "corpus.yaml", "training corpus")
	cmd.Flags().StringVar(&out, "out", "model.json", "output file, - for stdout")
	return cmd
}

// writeModel writes through a temp file so a running API never reads a
// half-written model.
func writeModel(m *classifier.Model, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}

func modelInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <model.json> [text]",
		Short: "Summarise a model, optionally classifying text",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := classifier.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			io.WriteString(w, m.Summary())
			if len(args) == 2 {
				fmt.Fprintf(w, "category: %s\n", m.Predict(args[1]))
			}
			return nil
		},
	}
}
