package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docintel/pkg/fileutil"
	"docintel/pkg/models"

	"go.uber.org/zap"
)

// Processor runs a set of engines over images and writes the normalized
// results to disk.
type Processor struct {
	engines    []Engine
	preprocess *Preprocessor
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithPreprocessing enhances each image into dir before recognition.
func WithPreprocessing(dir string) Option {
	return func(p *Processor) {
		p.preprocess = &Preprocessor{Dir: dir}
	}
}

// NewProcessor returns a Processor over engines. At least one engine is
// required.
func NewProcessor(engines []Engine, logger *zap.Logger, opts ...Option) (*Processor, error) {
	if len(engines) == 0 {
		return nil, errors.New("no OCR engines configured")
	}
	p := &Processor{
		engines: engines,
		logger:  logger.Named("ocr"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Engines returns the names of the configured engines.
func (p *Processor) Engines() []string {
	names := make([]string, 0, len(p.engines))
	for _, e := range p.engines {
		names = append(names, e.Name())
	}
	return names
}

// ProcessImage recognizes imagePath with every engine. An engine that fails
// contributes a result carrying the error instead of aborting the image. When
// outDir is not empty the result is written to <outDir>/<stem>_ocr.json.
func (p *Processor) ProcessImage(ctx context.Context, imagePath, outDir string) (models.ImageResult, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.ImageResult{}, fmt.Errorf("image %s: %w", imagePath, fileutil.ErrNotFound)
		}
		return models.ImageResult{}, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return models.ImageResult{}, fmt.Errorf("image %s is a directory", imagePath)
	}

	p.logger.Info("processing image", zap.String("image", info.Name()))

	source := imagePath
	if p.preprocess != nil {
		enhanced, err := p.preprocess.Enhance(imagePath)
		if err != nil {
			return models.ImageResult{}, fmt.Errorf("failed to preprocess %s: %w", info.Name(), err)
		}
		source = enhanced
	}

	result := models.ImageResult{
		ImagePath: imagePath,
		ImageName: info.Name(),
		Timestamp: p.now().Format(time.RFC3339Nano),
		Engines:   make(map[string]models.EngineResult, len(p.engines)),
	}
	for _, engine := range p.engines {
		res, err := engine.Recognize(ctx, source)
		if err != nil {
			p.logger.Error("text extraction failed",
				zap.String("engine", engine.Name()),
				zap.String("image", info.Name()),
				zap.Error(err))
			res = models.FailedEngineResult(engine.Name(), err)
		}
		result.Engines[engine.Name()] = res
	}

	if outDir != "" {
		outPath := filepath.Join(outDir, fileutil.Stem(imagePath)+"_ocr.json")
		if err := fileutil.WriteJSON(outPath, result); err != nil {
			return result, err
		}
		p.logger.Debug("results saved", zap.String("path", outPath))
	}
	return result, nil
}

// BatchProcess runs ProcessImage over every file in inDir matching pattern,
// in name order. A failing image is logged and counted; the batch goes on.
// A summary is written to <outDir>/batch_summary.json.
func (p *Processor) BatchProcess(ctx context.Context, inDir, outDir, pattern string) (models.BatchSummary, error) {
	if !fileutil.Exists(inDir) {
		return models.BatchSummary{}, fmt.Errorf("input directory %s: %w", inDir, fileutil.ErrNotFound)
	}
	files, err := fileutil.ListFiles(inDir, pattern, false)
	if err != nil {
		return models.BatchSummary{}, err
	}
	p.logger.Info("found images to process", zap.Int("count", len(files)))

	summary := models.BatchSummary{TotalImages: len(files)}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := p.ProcessImage(ctx, file, outDir); err != nil {
			p.logger.Error("failed to process image", zap.String("image", file), zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Successful++

		if (i+1)%10 == 0 {
			p.logger.Info("batch progress", zap.Int("done", i+1), zap.Int("total", len(files)))
		}
	}

	p.logger.Info("batch processing complete",
		zap.Int("successful", summary.Successful),
		zap.Int("total", summary.TotalImages))

	summary.Timestamp = p.now().Format(time.RFC3339Nano)
	if err := fileutil.WriteJSON(filepath.Join(outDir, "batch_summary.json"), summary); err != nil {
		return summary, err
	}
	return summary, nil
}
