package ocr

import (
	"image"
	"math"

	"docintel/pkg/models"
)

// BBoxFromPoints reduces a polygon (PaddleOCR returns quadrilaterals) to its
// axis-aligned bounding box. Points with fewer than two coordinates are
// ignored.
func BBoxFromPoints(points [][]float64) models.BBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		if len(p) < 2 {
			continue
		}
		minX = math.Min(minX, p[0])
		minY = math.Min(minY, p[1])
		maxX = math.Max(maxX, p[0])
		maxY = math.Max(maxY, p[1])
	}
	if math.IsInf(minX, 1) {
		return models.BBox{}
	}
	return models.BBox{
		XMin: int(minX),
		YMin: int(minY),
		XMax: int(maxX),
		YMax: int(maxY),
	}
}

// BBoxFromRect converts an image rectangle (Tesseract word boxes).
func BBoxFromRect(r image.Rectangle) models.BBox {
	return models.BBox{XMin: r.Min.X, YMin: r.Min.Y, XMax: r.Max.X, YMax: r.Max.Y}
}

// BBoxFromXYWH converts a left/top/width/height box (Azure line boxes).
func BBoxFromXYWH(x, y, w, h int) models.BBox {
	return models.BBox{XMin: x, YMin: y, XMax: x + w, YMax: y + h}
}

// PercentToUnit maps a 0-100 confidence onto 0-1.
func PercentToUnit(conf float64) float64 {
	return conf / 100
}
