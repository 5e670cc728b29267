// Package azure recognizes printed text with the Azure Computer Vision OCR
// API.
package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"docintel/pkg/models"
	"docintel/pkg/services/ocr"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// Engine calls RecognizePrintedTextInStream. The legacy OCR endpoint reports
// no confidence, so every block carries 0.
type Engine struct {
	client   computervision.BaseClient
	language computervision.OcrLanguages
}

// New creates an engine for endpoint authenticated with apiKey. lang is an
// OCR language code such as "en"; empty means automatic detection.
func New(endpoint, apiKey, lang string) (*Engine, error) {
	if endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("azure endpoint and key are required: %w", ocr.ErrEngineUnavailable)
	}
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	language := computervision.OcrLanguagesUnk
	if lang != "" {
		language = computervision.OcrLanguages(lang)
	}
	return &Engine{client: client, language: language}, nil
}

func (e *Engine) Name() string { return models.EngineAzure }

// Recognize uploads the image and returns one block per recognized line.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (models.EngineResult, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return models.EngineResult{}, fmt.Errorf("failed to read image: %w", err)
	}

	result, err := e.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(imageData)),
		e.language,
	)
	if err != nil {
		return models.EngineResult{}, fmt.Errorf("failed to extract text: %w", err)
	}

	var blocks []models.TextBlock
	for _, line := range textLines(result) {
		blocks = append(blocks, models.TextBlock{
			Text: line.Text,
			BBox: ocr.BBoxFromXYWH(line.X, line.Y, line.Width, line.Height),
		})
	}
	return models.NewEngineResult(models.EngineAzure, blocks, "\n"), nil
}

// textLines extracts text lines with position information from an OCR result.
func textLines(result computervision.OcrResult) []models.TextLine {
	if result.Regions == nil {
		return nil
	}
	var lines []models.TextLine
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.BoundingBox == nil || line.Words == nil {
				continue
			}
			var box []int
			for _, part := range strings.Split(*line.BoundingBox, ",") {
				val, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					break
				}
				box = append(box, val)
			}
			if len(box) < 4 {
				continue
			}

			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			text := strings.Join(words, " ")
			if text == "" {
				continue
			}
			lines = append(lines, models.TextLine{
				Text:   text,
				X:      box[0],
				Y:      box[1],
				Width:  box[2],
				Height: box[3],
			})
		}
	}
	return lines
}
