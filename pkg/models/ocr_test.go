package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageResultFlattensEngines(t *testing.T) {
	res := ImageResult{
		ImagePath: "dataset/raw/a.png",
		ImageName: "a.png",
		Timestamp: "2024-01-02T03:04:05Z",
		Engines: map[string]EngineResult{
			EnginePaddle:    NewEngineResult(EnginePaddle, []TextBlock{{Text: "INVOICE", Confidence: 0.9}}, "\n"),
			EngineTesseract: FailedEngineResult(EngineTesseract, errors.New("no tessdata")),
		},
	}

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "image_path")
	assert.Contains(t, raw, EnginePaddle)
	assert.Contains(t, raw, EngineTesseract)
	assert.NotContains(t, raw, "Engines")

	var back ImageResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res, back)
	assert.Equal(t, "no tessdata", back.Engines[EngineTesseract].Error)
}

func TestNewEngineResult(t *testing.T) {
	res := NewEngineResult(EngineTesseract, []TextBlock{
		{Text: "Invoice", Confidence: 0.5},
		{Text: "#:", Confidence: 1},
	}, " ")
	assert.Equal(t, "Invoice #:", res.FullText)
	assert.Equal(t, 2, res.NumBlocks)
	assert.Equal(t, 0.75, res.AvgConfidence)

	empty := NewEngineResult(EnginePaddle, nil, "\n")
	assert.NotNil(t, empty.TextBlocks)
	assert.Equal(t, 0.0, empty.AvgConfidence)
}
