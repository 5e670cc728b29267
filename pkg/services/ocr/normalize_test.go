package ocr

import (
	"image"
	"testing"

	"docintel/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestBBoxFromPoints(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		want   models.BBox
	}{
		{
			name:   "quadrilateral",
			points: [][]float64{{50.7, 30}, {200, 28.2}, {201.9, 60}, {51, 62.5}},
			want:   models.BBox{XMin: 50, YMin: 28, XMax: 201, YMax: 62},
		},
		{
			name:   "short points ignored",
			points: [][]float64{{1}, {10, 20}, {30, 40}},
			want:   models.BBox{XMin: 10, YMin: 20, XMax: 30, YMax: 40},
		},
		{
			name: "empty",
			want: models.BBox{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BBoxFromPoints(tt.points))
		})
	}
}

func TestBBoxConversions(t *testing.T) {
	assert.Equal(t, models.BBox{XMin: 1, YMin: 2, XMax: 3, YMax: 4}, BBoxFromRect(image.Rect(1, 2, 3, 4)))
	assert.Equal(t, models.BBox{XMin: 50, YMin: 50, XMax: 170, YMax: 70}, BBoxFromXYWH(50, 50, 120, 20))
	assert.InDelta(t, 0.87, PercentToUnit(87), 1e-12)
}
