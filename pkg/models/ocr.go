package models

import (
	"encoding/json"
	"strings"
)

// Engine names as they appear in configuration, directory names and result
// files.
const (
	EnginePaddle    = "paddle"
	EngineTesseract = "tesseract"
	EngineAzure     = "azure"
)

// KnownEngines lists every engine the pipeline can run.
var KnownEngines = []string{EnginePaddle, EngineTesseract, EngineAzure}

// BBox is an axis-aligned bounding box in image pixels.
type BBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// TextBlock is one recognized run of text.
type TextBlock struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// EngineResult is the normalized output of a single OCR engine for one image.
type EngineResult struct {
	Engine        string      `json:"engine"`
	TextBlocks    []TextBlock `json:"text_blocks"`
	FullText      string      `json:"full_text"`
	NumBlocks     int         `json:"num_blocks"`
	AvgConfidence float64     `json:"avg_confidence"`
	Error         string      `json:"error,omitempty"`
}

// NewEngineResult fills the derived fields from blocks. Block texts are joined
// with sep to form the full text.
func NewEngineResult(engine string, blocks []TextBlock, sep string) EngineResult {
	if blocks == nil {
		blocks = []TextBlock{}
	}
	texts := make([]string, 0, len(blocks))
	var sum float64
	for _, b := range blocks {
		texts = append(texts, b.Text)
		sum += b.Confidence
	}
	res := EngineResult{
		Engine:     engine,
		TextBlocks: blocks,
		NumBlocks:  len(blocks),
	}
	if len(blocks) > 0 {
		res.AvgConfidence = sum / float64(len(blocks))
	}
	res.FullText = strings.Join(texts, sep)
	return res
}

// FailedEngineResult is recorded when an engine could not process an image.
func FailedEngineResult(engine string, err error) EngineResult {
	return EngineResult{
		Engine:     engine,
		TextBlocks: []TextBlock{},
		Error:      err.Error(),
	}
}

// ImageResult is the content of one <stem>_ocr.json file: image info plus one
// EngineResult per engine, keyed by engine name at the top level.
type ImageResult struct {
	ImagePath string
	ImageName string
	Timestamp string
	Engines   map[string]EngineResult
}

// MarshalJSON flattens the engine results next to the image fields.
func (r ImageResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Engines)+3)
	for name, res := range r.Engines {
		out[name] = res
	}
	out["image_path"] = r.ImagePath
	out["image_name"] = r.ImageName
	out["timestamp"] = r.Timestamp
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON. Every object-valued key is treated as an
// engine result.
func (r *ImageResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ImageResult{Engines: map[string]EngineResult{}}
	for key, value := range raw {
		switch key {
		case "image_path":
			if err := json.Unmarshal(value, &r.ImagePath); err != nil {
				return err
			}
		case "image_name":
			if err := json.Unmarshal(value, &r.ImageName); err != nil {
				return err
			}
		case "timestamp":
			if err := json.Unmarshal(value, &r.Timestamp); err != nil {
				return err
			}
		default:
			if len(value) == 0 || value[0] != '{' {
				continue
			}
			var res EngineResult
			if err := json.Unmarshal(value, &res); err != nil {
				return err
			}
			r.Engines[key] = res
		}
	}
	return nil
}

// BatchSummary is written as batch_summary.json after a batch OCR run.
type BatchSummary struct {
	TotalImages int    `json:"total_images"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	Timestamp   string `json:"timestamp"`
}
