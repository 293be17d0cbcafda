package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/go-promptdiff/internal/report"
	"github.com/spf13/cobra"
)

// errTextsDiffer is returned by diff --exit-code; main exits 1 without
// printing it.
var errTextsDiffer = errors.New("texts differ")

// sideInput describes where one side of a comparison comes from.
type sideInput struct {
	name    string
	text    string
	textSet bool
	file    string
}

func newDiffCmd() *cobra.Command {
	var textA, textB, fileA, fileB string
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "diff [FILE_A FILE_B]",
		Short: "Compare two texts word by word",
		Long: "Compare two texts word by word. Each side comes from --a/--b, " +
			"--a-file/--b-file ('-' reads stdin) or the two positional file arguments.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("diff takes either no arguments or two files, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			a := sideInput{name: "A", text: textA, textSet: cmd.Flags().Changed("a"), file: fileA}
			b := sideInput{name: "B", text: textB, textSet: cmd.Flags().Changed("b"), file: fileB}
			if len(args) == 2 {
				if a.textSet || b.textSet || a.file != "" || b.file != "" {
					return fmt.Errorf("positional files cannot be combined with --a, --b, --a-file or --b-file")
				}
				a.file, b.file = args[0], args[1]
			}

			textOfA, textOfB, err := readInputs(a, b, cmd.InOrStdin())
			if err != nil {
				return err
			}

			format, style, err := outputSettings(cfg)
			if err != nil {
				return err
			}

			c, err := newService(cfg).Compare(textOfA, textOfB)
			if err != nil {
				return err
			}

			if err := report.Write(cmd.OutOrStdout(), format, style, report.NewDocument("", c)); err != nil {
				return err
			}

			if exitCode && !c.Identical() {
				return errTextsDiffer
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&textA, "a", "", "Text A (source)")
	cmd.Flags().StringVar(&textB, "b", "", "Text B (target)")
	cmd.Flags().StringVar(&fileA, "a-file", "", "Read text A from a file ('-' for stdin)")
	cmd.Flags().StringVar(&fileB, "b-file", "", "Read text B from a file ('-' for stdin)")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with status 1 when the texts differ")

	return cmd
}

func readInputs(a, b sideInput, stdin io.Reader) (string, string, error) {
	if !a.textSet && !b.textSet && a.file == "-" && b.file == "-" {
		return "", "", fmt.Errorf("only one side can be read from stdin")
	}

	textA, err := readSide(a, stdin)
	if err != nil {
		return "", "", err
	}
	textB, err := readSide(b, stdin)
	if err != nil {
		return "", "", err
	}
	return textA, textB, nil
}

func readSide(in sideInput, stdin io.Reader) (string, error) {
	switch {
	case in.textSet && in.file != "":
		return "", fmt.Errorf("text %s given both inline and as a file", in.name)
	case in.textSet:
		return in.text, nil
	case in.file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read text %s from stdin: %w", in.name, err)
		}
		return string(data), nil
	case in.file != "":
		data, err := os.ReadFile(in.file)
		if err != nil {
			return "", fmt.Errorf("read text %s: %w", in.name, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("missing text %s (use --%s, --%s-file or two file arguments)",
			in.name, strings.ToLower(in.name), strings.ToLower(in.name))
	}
}
