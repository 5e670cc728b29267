package generator

import (
	"fmt"
	"path/filepath"

	"docintel/pkg/fileutil"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// GenerateDataset renders numSamples invoices into OutputDir and writes their
// labels into LabelsDir. Each image is perturbed with probability
// noiseProbability. It returns the generated document IDs.
func (g *Generator) GenerateDataset(numSamples int, noiseProbability float64) ([]string, error) {
	if numSamples < 0 {
		return nil, fmt.Errorf("number of samples must not be negative, got %d", numSamples)
	}
	if noiseProbability < 0 || noiseProbability > 1 {
		return nil, fmt.Errorf("noise probability %v out of range [0,1]", noiseProbability)
	}

	g.logger.Info("generating synthetic invoices", zap.Int("count", numSamples))

	day := g.now().Format("20060102")
	docIDs := make([]string, 0, numSamples)
	for i := 0; i < numSamples; i++ {
		inv := g.Generate()
		inv.ConfidenceScores = make(map[string]float64, len(trackedFields))
		for _, field := range trackedFields {
			inv.ConfidenceScores[field] = 1.0
		}

		docID := fmt.Sprintf("synthetic_%s_%04d", day, i)

		img := g.Render(inv)
		if g.rng.Float64() < noiseProbability {
			img = g.AddNoise(img)
		}

		if err := imaging.Save(img, filepath.Join(g.OutputDir, docID+".png")); err != nil {
			return docIDs, fmt.Errorf("failed to save image for %s: %w", docID, err)
		}
		if err := fileutil.WriteJSON(filepath.Join(g.LabelsDir, docID+".json"), inv); err != nil {
			return docIDs, err
		}
		docIDs = append(docIDs, docID)

		if (i+1)%50 == 0 {
			g.logger.Info("generation progress", zap.Int("done", i+1), zap.Int("total", numSamples))
		}
	}

	g.logger.Info("synthetic invoices generated", zap.Int("count", len(docIDs)))
	return docIDs, nil
}
