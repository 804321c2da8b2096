package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"goflare.io/slopscan"
	"goflare.io/slopscan/internal/pagescan"
)

var errNoInput = errors.New("no input: pass files or pipe text on stdin")

type globalOptions struct {
	configPath string
	jsonOutput bool
	explain    bool
	minLength  int
	threshold  float64
	snapshot   string
	html       bool
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "slopscan",
		Short: "Heuristic detector for machine-generated text",
		Long: `Heuristic detector for machine-generated text

Scores text against a weighted table of lexical and structural rules
(formal transitions, buzzwords, politeness boilerplate, list structure,
sentence uniformity, spelling perfection) and reports whether it looks
machine-generated.`,

		Example: `  # Classify a file
  slopscan classify essay.txt

  # Classify stdin and show which rules fired
  cat reply.txt | slopscan classify --explain

  # JSON output with a stricter threshold
  slopscan classify --json --threshold 0.8 *.md

  # Classify every post and comment on a saved page
  slopscan classify --explain feed.html

  # Aggregate statistics over many files
  slopscan stats docs/*.txt`,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	flags.BoolVar(&opts.explain, "explain", false, "list the rules that fired")
	flags.IntVar(&opts.minLength, "min-length", -1, "minimum text length in characters (default from config)")
	flags.Float64Var(&opts.threshold, "threshold", -1, "AI threshold in [0, 1] (default from config)")
	flags.StringVar(&opts.snapshot, "snapshot", "", "cache snapshot file loaded before and saved after the run")
	flags.BoolVar(&opts.html, "html", false, "treat input as HTML and classify each text block")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(newClassifyCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))

	return cmd
}

// session is a detector bound to the optional snapshot file.
type session struct {
	detector *slopscan.Detector
	snapshot string
	logger   *zap.Logger
}

func (o *globalOptions) open() (*session, error) {
	var fileCfg fileConfig
	if o.configPath != "" {
		var err error
		if fileCfg, err = loadFileConfig(o.configPath); err != nil {
			return nil, err
		}
	}

	detectorOpts, err := fileCfg.options()
	if err != nil {
		return nil, err
	}
	if o.minLength >= 0 {
		detectorOpts = append(detectorOpts, slopscan.WithMinTextLength(o.minLength))
	}
	if o.threshold >= 0 {
		detectorOpts = append(detectorOpts, slopscan.WithAIThreshold(o.threshold))
	}

	logger := zap.NewNop()
	if o.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	detectorOpts = append(detectorOpts, slopscan.WithLogger(logger))

	d, err := slopscan.New(detectorOpts...)
	if err != nil {
		return nil, err
	}

	s := &session{detector: d, snapshot: fileCfg.Snapshot, logger: logger}
	if o.snapshot != "" {
		s.snapshot = o.snapshot
	}
	if err := s.load(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) load() error {
	if s.snapshot == "" {
		return nil
	}
	f, err := os.Open(s.snapshot)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := s.detector.Import(f)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", s.snapshot, err)
	}
	s.logger.Debug("Loaded cache snapshot", zap.String("path", s.snapshot), zap.Int("entries", n))
	return nil
}

// Close saves the snapshot, if any, and releases the detector.
func (s *session) Close() error {
	defer s.detector.Close()
	defer s.logger.Sync() //nolint:errcheck

	if s.snapshot == "" {
		return nil
	}
	f, err := os.Create(s.snapshot)
	if err != nil {
		return err
	}
	n, err := s.detector.Export(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.snapshot, err)
	}
	s.logger.Debug("Saved cache snapshot", zap.String("path", s.snapshot), zap.Int("entries", n))
	return nil
}

type input struct {
	source string
	text   string
}

// readInputs reads every named file, or stdin when none is given. HTML input,
// forced with --html or detected by extension, is split into one input per
// text block.
func (s *session) readInputs(stdin io.Reader, paths []string, html bool) ([]input, error) {
	if len(paths) == 0 {
		if f, ok := stdin.(*os.File); ok && isTerminal(f) {
			return nil, errNoInput
		}
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return s.split("-", raw, html)
	}

	var inputs []input
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		ext := strings.ToLower(filepath.Ext(p))
		more, err := s.split(p, raw, html || ext == ".html" || ext == ".htm")
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, more...)
	}
	return inputs, nil
}

func (s *session) split(source string, raw []byte, html bool) ([]input, error) {
	if !html {
		return []input{{source: source, text: strings.TrimRight(string(raw), "\n")}}, nil
	}

	scanner, err := pagescan.New(pagescan.DefaultCategories, s.logger)
	if err != nil {
		return nil, err
	}
	blocks, err := scanner.Scan(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	inputs := make([]input, len(blocks))
	for i, b := range blocks {
		inputs[i] = input{source: fmt.Sprintf("%s#%s[%d]", source, b.Category, i), text: b.Text}
	}
	return inputs, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
