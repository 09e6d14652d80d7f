package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/solardome/answer-highlight/internal/annotate"
	"github.com/solardome/answer-highlight/internal/config"
	"github.com/solardome/answer-highlight/internal/report"
	"github.com/solardome/answer-highlight/internal/watch"
)

type inputOptions struct {
	paper     string
	reference string
	students  string
	grading   string
	answer    string
	student   int
	question  int
}

func addInputFlags(fs *pflag.FlagSet, in *inputOptions) {
	fs.StringVar(&in.paper, "paper", "", "Path to the exam paper JSON")
	fs.StringVar(&in.reference, "reference", "", "Path to the reference answers JSON")
	fs.StringVar(&in.students, "students", "", "Path to the student answers JSON")
	fs.StringVar(&in.grading, "grading", "", "Path to grading results (JSON or YAML)")
	fs.StringVar(&in.answer, "answer", "", "Path to a single plain-text answer (.txt), instead of --students")
	fs.IntVar(&in.student, "student", 0, "Student id of --answer")
	fs.IntVar(&in.question, "question", 0, "Question id of --answer")
}

func (in inputOptions) paths() []string {
	var out []string
	for _, p := range []string{in.paper, in.reference, in.students, in.answer, in.grading} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type renderOptions struct {
	inputs      inputOptions
	configPath  string
	outDir      string
	title       string
	fragment    bool
	noHTML      bool
	watch       bool
	concurrency int
}

func newRenderCmd(a *app) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Highlight graded answers and write HTML pages plus report.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, opts)
		},
	}
	fs := cmd.Flags()
	addInputFlags(fs, &opts.inputs)
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&opts.outDir, "out-dir", "", "Output directory (default \"out\")")
	fs.StringVar(&opts.title, "title", "", "Page title")
	fs.BoolVar(&opts.fragment, "fragment", false, "Write only the highlighted markup for each answer")
	fs.BoolVar(&opts.noHTML, "no-html", false, "Skip answer pages; write report.json only")
	fs.BoolVar(&opts.watch, "watch", false, "Re-render whenever an input file changes")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Answers rendered in parallel")
	return cmd
}

// resolveConfig layers defaults, the config file, the environment and the
// flags that were set explicitly, in that order.
func resolveConfig(cmd *cobra.Command, opts *renderOptions, lookup func(string) (string, bool)) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}
	fs := cmd.Flags()
	if fs.Changed("out-dir") {
		cfg.Run.OutDir = opts.outDir
	}
	if fs.Changed("concurrency") {
		cfg.Run.Concurrency = opts.concurrency
	}
	if fs.Changed("title") {
		cfg.Render.Title = opts.title
	}
	if opts.fragment {
		cfg.Render.FragmentOnly = true
	}
	if opts.noHTML {
		cfg.Render.WriteHTML = false
	}
	return cfg, cfg.Validate()
}

func engineConfig(in inputOptions, cfg config.Config) annotate.Config {
	return annotate.Config{
		PaperPath:     in.paper,
		ReferencePath: in.reference,
		StudentsPath:  in.students,
		GradingPath:   in.grading,
		AnswerPath:    in.answer,
		StudentID:     in.student,
		QuestionID:    in.question,
		OutDir:        cfg.Run.OutDir,
		ReportPath:    report.DefaultReportPath(cfg.Run.OutDir),
		ChecksumsPath: report.DefaultChecksumsPath(cfg.Run.OutDir),
		RunLogPath:    report.DefaultRunLogPath(cfg.Run.OutDir),
		Title:         cfg.Render.Title,
		ZIndexCeiling: cfg.Render.ZIndexCeiling,
		FragmentOnly:  cfg.Render.FragmentOnly,
		WriteHTML:     cfg.Render.WriteHTML,
		Concurrency:   cfg.Run.Concurrency,
	}
}

func runRender(cmd *cobra.Command, a *app, opts *renderOptions) error {
	cfg, err := resolveConfig(cmd, opts, os.LookupEnv)
	if err != nil {
		return err
	}
	ecfg := engineConfig(opts.inputs, cfg)
	out := cmd.OutOrStdout()

	rep, err := annotate.Run(cmd.Context(), ecfg, a.logger)
	if err != nil {
		return err
	}
	printSummary(out, rep, ecfg)
	if !opts.watch {
		return nil
	}

	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}
	w, err := watch.New(opts.inputs.paths(),
		watch.WithDebounce(debounce),
		watch.WithOnError(func(err error) {
			a.logger.Warn("watch error", zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.logger.Info("watching inputs", zap.Strings("paths", w.Paths()))
	return w.Run(ctx, func() {
		rerender(ctx, a.logger, out, ecfg)
	})
}

// rerender runs one watch-triggered render. Failures are logged so the
// watcher keeps going while the user fixes the input.
func rerender(ctx context.Context, logger *zap.Logger, out io.Writer, ecfg annotate.Config) {
	rep, err := annotate.Run(ctx, ecfg, logger)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		return
	}
	printSummary(out, rep, ecfg)
}

func printSummary(out io.Writer, rep annotate.Report, ecfg annotate.Config) {
	fmt.Fprintf(out, "run_id=%s answers=%d graded=%d occurrences=%d unmatched=%d report=%s checksums=%s run_log=%s\n",
		rep.RunID, rep.Summary.Answers, rep.Summary.Graded, rep.Summary.Occurrences, rep.Summary.Unmatched,
		ecfg.ReportPath, ecfg.ChecksumsPath, ecfg.RunLogPath)
}
