// Command verify-setup checks the dataset layout, configuration and OCR
// engine availability.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docintel/pkg/config"
	"docintel/pkg/fileutil"
	"docintel/pkg/models"
	"docintel/pkg/services/ocr/engines"
	"docintel/pkg/store"

	"go.uber.org/zap"
)

const (
	green = "\033[92m"
	red   = "\033[91m"
	bold  = "\033[1m"
	reset = "\033[0m"
)

type checker struct {
	out    io.Writer
	passed int
	total  int
}

func (c *checker) section(title string) {
	fmt.Fprintf(c.out, "\n%s%s%s\n", bold, title, reset)
}

func (c *checker) check(description string, err error) bool {
	c.total++
	if err != nil {
		fmt.Fprintf(c.out, "%s✗%s %s: %v\n", red, reset, description, err)
		return false
	}
	c.passed++
	fmt.Fprintf(c.out, "%s✓%s %s\n", green, reset, description)
	return true
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	timeout := flag.Duration("timeout", 5*time.Second, "Time allowed for each engine check")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify-setup: %v\n", err)
		os.Exit(1)
	}

	c := &checker{out: os.Stdout}
	verify(context.Background(), c, cfg, *timeout)
	if c.passed != c.total {
		os.Exit(1)
	}
}

func verify(ctx context.Context, c *checker, cfg *config.Config, timeout time.Duration) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(c.out, "%s%s\nInvoice OCR pipeline setup verification\n%s%s\n", bold, rule, rule, reset)

	c.section("1. Directory Structure")
	dirs := []string{cfg.DatasetDir, cfg.RawDir(), cfg.LabelsDir(), cfg.PreprocessedDir()}
	for _, engine := range models.KnownEngines {
		dirs = append(dirs, cfg.OCRDir(engine))
	}
	dirs = append(dirs, cfg.ReportsDir)
	for _, dir := range dirs {
		c.check("Directory exists: "+filepath.ToSlash(dir), exists(dir))
	}

	c.section("2. Configuration")
	c.check("Configuration valid", cfg.Validate())
	for _, file := range []string{"configs/config.yaml", ".env.example"} {
		c.check("File exists: "+file, exists(file))
	}

	c.section("3. OCR Engines")
	for _, name := range cfg.EngineNames() {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		_, err := engines.Build(checkCtx, name, cfg)
		cancel()
		c.check("Engine available: "+name, err)
	}

	if cfg.DatabaseURL != "" {
		c.section("4. Report Store")
		s, err := store.Open(cfg.DatabaseURL, zap.NewNop())
		if c.check("Database reachable", err) {
			s.Close()
		}
	}

	fmt.Fprintf(c.out, "\n%s%s%s\n", bold, rule, reset)
	fmt.Fprintf(c.out, "%d/%d checks passed\n", c.passed, c.total)
}

func exists(path string) error {
	if !fileutil.Exists(path) {
		return fileutil.ErrNotFound
	}
	return nil
}
