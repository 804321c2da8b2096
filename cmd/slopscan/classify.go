package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"goflare.io/slopscan"
	"goflare.io/slopscan/models"
)

var (
	aiColor      = color.New(color.FgRed, color.Bold)
	humanColor   = color.New(color.FgGreen, color.Bold)
	skippedColor = color.New(color.FgYellow)
)

type classifyRecord struct {
	Source  string                  `json:"source"`
	Result  models.Result           `json:"result"`
	Explain []slopscan.Contribution `json:"explain,omitempty"`
}

func newClassifyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [files...]",
		Short: "Classify files, or stdin when no file is given",

		Example: `  slopscan classify essay.txt notes.md
  echo "..." | slopscan classify --json`,

		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}

			inputs, err := s.readInputs(cmd.InOrStdin(), args, opts.html)
			if err != nil {
				_ = s.Close()
				return err
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for _, in := range inputs {
				rec := classifyRecord{
					Source: in.source,
					Result: s.detector.ClassifyContext(cmd.Context(), in.text),
				}
				if opts.explain && rec.Result.Method == models.MethodLocalPatterns {
					rec.Explain = s.detector.Explain(in.text)
				}

				if opts.jsonOutput {
					err = enc.Encode(rec)
				} else {
					err = printRecord(out, rec)
				}
				if err != nil {
					_ = s.Close()
					return err
				}
			}
			return s.Close()
		},
	}
}

func printRecord(w io.Writer, rec classifyRecord) error {
	res := rec.Result

	var verdict string
	switch {
	case res.Method != models.MethodLocalPatterns && res.Method != models.MethodRemote:
		verdict = skippedColor.Sprint(string(res.Method))
	case res.IsAI:
		verdict = aiColor.Sprint("AI")
	default:
		verdict = humanColor.Sprint("human")
	}

	if _, err := fmt.Fprintf(w, "%s: %s (confidence %.2f, %s)\n", rec.Source, verdict, res.Confidence, res.Method); err != nil {
		return err
	}
	for _, c := range rec.Explain {
		if _, err := fmt.Fprintf(w, "  +%.2f %s\n", c.Weight, c.Rule); err != nil {
			return err
		}
	}
	return nil
}
