// Package tesseract runs the local Tesseract engine through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"docintel/pkg/models"
	"docintel/pkg/services/ocr"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes words with Tesseract. A new client is created for every
// image since gosseract clients are not safe for concurrent use.
type Engine struct {
	languages     []string
	pageSegMode   int
	clientFactory func() *gosseract.Client
}

// New returns an engine for the given Tesseract languages ("eng" when
// empty). psm selects the page segmentation mode; 0 keeps the default.
func New(languages []string, psm int) (*Engine, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	e := &Engine{
		languages:     languages,
		pageSegMode:   psm,
		clientFactory: gosseract.NewClient,
	}
	if err := e.Check(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Name() string { return models.EngineTesseract }

// Check verifies that the Tesseract library answers with a version.
func (e *Engine) Check(_ context.Context) error {
	if strings.TrimSpace(gosseract.Version()) == "" {
		return fmt.Errorf("tesseract library not found: %w", ocr.ErrEngineUnavailable)
	}
	return nil
}

// Recognize returns one block per recognized word.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (models.EngineResult, error) {
	if err := ctx.Err(); err != nil {
		return models.EngineResult{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return models.EngineResult{}, fmt.Errorf("set languages: %w", err)
	}
	if e.pageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.pageSegMode)); err != nil {
			return models.EngineResult{}, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return models.EngineResult{}, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return models.EngineResult{}, fmt.Errorf("recognize words: %w", err)
	}
	return models.NewEngineResult(models.EngineTesseract, wordBlocks(boxes), " "), nil
}

// wordBlocks keeps non-empty words with a positive confidence.
func wordBlocks(boxes []gosseract.BoundingBox) []models.TextBlock {
	blocks := make([]models.TextBlock, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		conf := ocr.PercentToUnit(b.Confidence)
		if conf <= 0 {
			continue
		}
		blocks = append(blocks, models.TextBlock{
			Text:       text,
			Confidence: conf,
			BBox:       ocr.BBoxFromRect(b.Box),
		})
	}
	return blocks
}
