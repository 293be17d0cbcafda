package main

import (
	"fmt"
	"os"

	"github.com/example/go-promptdiff/internal/compare"
	"github.com/example/go-promptdiff/internal/report"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// batchFile is the mapping form of a batch input; a bare list of pairs is
// accepted too.
type batchFile struct {
	Pairs []compare.Pair `yaml:"pairs" validate:"required,min=1,dive"`
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch FILE",
		Short: "Compare every text pair listed in a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}

			pairs, err := parseBatch(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			format, style, err := outputSettings(cfg)
			if err != nil {
				return err
			}

			results, err := newService(cfg).CompareBatch(cmd.Context(), pairs)
			if err != nil {
				return err
			}

			docs := make([]report.Document, len(results))
			for i, c := range results {
				docs[i] = report.NewDocument(pairs[i].Name, c)
			}

			return report.WriteBatch(cmd.OutOrStdout(), format, style, docs)
		},
	}
}

// parseBatch decodes a list of pairs, or a mapping with a pairs key, and
// names unnamed pairs by their 1-based position.
func parseBatch(data []byte) ([]compare.Pair, error) {
	var f batchFile
	if err := yaml.Unmarshal(data, &f.Pairs); err != nil {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse batch file: %w", err)
		}
	}

	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid batch file: %w", err)
	}

	for i := range f.Pairs {
		if f.Pairs[i].Name == "" {
			f.Pairs[i].Name = fmt.Sprintf("#%d", i+1)
		}
	}
	return f.Pairs, nil
}
