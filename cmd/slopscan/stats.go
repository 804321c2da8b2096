package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"goflare.io/slopscan/models"
)

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [files...]",
		Short: "Classify inputs and print aggregate statistics",

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

			for _, in := range inputs {
				s.detector.ClassifyContext(cmd.Context(), in.text)
			}
			st := s.detector.Stats()

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				err = json.NewEncoder(out).Encode(st)
			} else {
				err = printStats(out, st)
			}
			if err != nil {
				_ = s.Close()
				return err
			}
			return s.Close()
		},
	}
}

func printStats(w io.Writer, st models.Stats) error {
	_, err := fmt.Fprintf(w, `Analyzed:          %d
  AI:              %d
  Human:           %d
  Errors:          %d
Local detections:  %d
Remote calls:      %d
Cache:             %d entries, %d%% hit rate
Rate limit:        %d/%d this window
`,
		st.TotalAnalyzed, st.AIDetected, st.HumanDetected, st.Errors,
		st.LocalDetections, st.APICalls,
		st.CacheSize, st.CacheHitRate,
		st.Limiter.RequestsThisWindow, st.Limiter.MaxPerMinute)
	return err
}
