// Package engines builds the OCR engines selected by configuration.
package engines

import (
	"context"
	"fmt"

	"docintel/pkg/config"
	"docintel/pkg/models"
	"docintel/pkg/services/ocr"
	"docintel/pkg/services/ocr/azure"
	"docintel/pkg/services/ocr/paddle"
	"docintel/pkg/services/ocr/tesseract"

	"go.uber.org/zap"
)

// New returns the engines named by cfg.OCR.Engine ("both" selects paddle and
// tesseract). Any engine that cannot be used fails the whole call with an
// error wrapping ocr.ErrEngineUnavailable.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]ocr.Engine, error) {
	names := cfg.EngineNames()
	engines := make([]ocr.Engine, 0, len(names))
	for _, name := range names {
		engine, err := Build(ctx, name, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("ocr engine initialized", zap.String("engine", name))
		engines = append(engines, engine)
	}
	return engines, nil
}

// Build creates a single engine by name and verifies it is reachable.
func Build(ctx context.Context, name string, cfg *config.Config) (ocr.Engine, error) {
	var (
		engine ocr.Engine
		err    error
	)
	switch name {
	case models.EnginePaddle:
		engine, err = paddle.New(cfg.OCR.Paddle.URL, paddle.WithTimeout(cfg.OCR.Paddle.Timeout))
	case models.EngineTesseract:
		engine, err = tesseract.New(cfg.OCR.Tesseract.Languages, cfg.OCR.Tesseract.PSM)
	case models.EngineAzure:
		engine, err = azure.New(cfg.OCR.Azure.Endpoint, cfg.OCR.Azure.Key, cfg.OCR.Lang)
	default:
		return nil, fmt.Errorf("unknown engine %q: %w", name, ocr.ErrEngineUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", name, err)
	}

	if checker, ok := engine.(ocr.Checker); ok {
		if err := checker.Check(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", name, err)
		}
	}
	return engine, nil
}
