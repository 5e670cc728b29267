// Command analyze-errors compares OCR results with the ground-truth labels
// and writes an error report.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"docintel/pkg/config"
	"docintel/pkg/logging"
	"docintel/pkg/models"
	"docintel/pkg/services/analysis"
)

type options struct {
	engine     string
	output     string
	configPath string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze-errors: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "analyze-errors: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("analyze-errors", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.engine, "engine", models.EnginePaddle, "Engine whose results are analyzed")
	fs.StringVar(&opts.output, "output", "", "Report path (default <reports>/error_report_<engine>.json)")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !slices.Contains(models.KnownEngines, opts.engine) {
		return options{}, fmt.Errorf("unknown engine %q", opts.engine)
	}
	return opts, nil
}

func run(opts options, stdout io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if opts.output == "" {
		opts.output = filepath.Join(cfg.ReportsDir, "error_report_"+opts.engine+".json")
	}

	analyzer := analysis.New(cfg.LabelsDir(), cfg.OCRTextDir(), logger)
	report, err := analyzer.GenerateReport(opts.engine, nil)
	if err != nil {
		return err
	}
	if err := analyzer.SaveReport(report, opts.output); err != nil {
		return err
	}

	fmt.Fprint(stdout, analysis.Summary(report, analyzer.Fields))
	return nil
}
