package ocr

import (
	"fmt"
	"image"
	"path/filepath"

	"docintel/pkg/fileutil"

	"github.com/disintegration/imaging"
)

// Preprocessor writes OCR-friendly copies of images into Dir.
type Preprocessor struct {
	Dir string
}

// Enhance converts the image to a high-contrast grayscale version and returns
// the path of the processed PNG.
func (p Preprocessor) Enhance(imagePath string) (string, error) {
	src, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	if err := fileutil.EnsureDir(p.Dir); err != nil {
		return "", err
	}
	processedPath := filepath.Join(p.Dir, fileutil.Stem(imagePath)+".png")
	if err := imaging.Save(img, processedPath); err != nil {
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	return processedPath, nil
}

// Preview crops a 5% margin off the page, sharpens it and limits it to
// 1000x1000 pixels for display.
func Preview(sourcePath string) (image.Image, error) {
	src, err := imaging.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	marginX := int(float64(width) * 0.05)
	marginY := int(float64(height) * 0.05)

	cropped := imaging.Crop(src, image.Rect(marginX, marginY, width-marginX, height-marginY))

	img := imaging.AdjustContrast(cropped, 20)
	img = imaging.Sharpen(img, 1.0)
	img = imaging.AdjustBrightness(img, 5)

	if width > 1000 || height > 1000 {
		img = imaging.Fit(img, 1000, 1000, imaging.Lanczos)
	}
	return img, nil
}
