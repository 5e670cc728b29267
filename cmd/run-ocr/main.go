// Command run-ocr recognizes every image of a directory with the configured
// OCR engines.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"docintel/pkg/config"
	"docintel/pkg/logging"
	"docintel/pkg/services/ocr"
	"docintel/pkg/services/ocr/engines"

	"go.uber.org/zap"
)

type options struct {
	input      string
	output     string
	pattern    string
	engine     string
	preprocess bool
	configPath string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run-ocr: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "run-ocr: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("run-ocr", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.input, "input", "", "Directory with the images (default <dataset>/raw)")
	fs.StringVar(&opts.output, "output", "", "Root directory for results, one subdirectory per engine (default <dataset>/ocr_text)")
	fs.StringVar(&opts.pattern, "pattern", "*.png", "Glob pattern of the images to process")
	fs.StringVar(&opts.engine, "engine", "", "paddle, tesseract, azure or both (default from config)")
	fs.BoolVar(&opts.preprocess, "preprocess", false, "Enhance images before recognition")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if _, err := filepath.Match(opts.pattern, ""); err != nil {
		return options{}, fmt.Errorf("invalid pattern %q", opts.pattern)
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.engine != "" {
		cfg.OCR.Engine = opts.engine
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if opts.preprocess {
		cfg.OCR.Preprocess = true
	}
	if opts.input == "" {
		opts.input = cfg.RawDir()
	}
	if opts.output == "" {
		opts.output = cfg.OCRTextDir()
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	all, err := engines.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var procOpts []ocr.Option
	if cfg.OCR.Preprocess {
		procOpts = append(procOpts, ocr.WithPreprocessing(cfg.PreprocessedDir()))
	}

	for _, engine := range all {
		proc, err := ocr.NewProcessor([]ocr.Engine{engine}, logger, procOpts...)
		if err != nil {
			return err
		}
		outDir := filepath.Join(opts.output, engine.Name())
		summary, err := proc.BatchProcess(ctx, opts.input, outDir, opts.pattern)
		if err != nil {
			return fmt.Errorf("%s: %w", engine.Name(), err)
		}
		logger.Info("engine run finished",
			zap.String("engine", engine.Name()),
			zap.Int("successful", summary.Successful),
			zap.Int("failed", summary.Failed))
		fmt.Printf("%s: %d/%d images processed, results in %s\n",
			engine.Name(), summary.Successful, summary.TotalImages, outDir)
	}
	return nil
}
