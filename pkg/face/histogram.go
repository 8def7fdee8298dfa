package face

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	// Decoders for the formats LoadHistograms accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/mat"
)

// Bins is the histogram width: one bin per 8-bit intensity.
const Bins = 256

// Gray converts img to 8-bit grayscale with ITU-R 601 luma weights. JPEG
// images already carry luma and are read directly from their Y plane.
func Gray(img image.Image) *image.Gray {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.Gray:
		return m
	case *image.YCbCr:
		g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := range b.Dy() {
			off := m.YOffset(b.Min.X, b.Min.Y+y)
			copy(g.Pix[y*g.Stride:y*g.Stride+b.Dx()], m.Y[off:off+b.Dx()])
		}
		return g
	}
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// Histogram counts the pixels of img at each gray level 0..255.
func Histogram(img image.Image) []float64 {
	g := Gray(img)
	h := make([]float64, Bins)
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X, y)]
		for _, v := range row {
			h[v]++
		}
	}
	return h
}

// LoadOptions configures LoadHistograms.
type LoadOptions struct {
	// Pattern formats the image file name from its index. Default "%d.jpg".
	Pattern string

	// Progress, if set, is called after each image.
	Progress func(done, total int)
}

// LoadHistograms decodes {dir}/{i}.jpg for i in 0..count-1 and returns their
// histograms as a count×256 matrix. The first unreadable image aborts the
// load.
func LoadHistograms(ctx context.Context, dir string, count int, opts LoadOptions) (*mat.Dense, error) {
	if count <= 0 {
		return nil, fmt.Errorf("face: image count must be positive, got %d", count)
	}
	pattern := opts.Pattern
	if pattern == "" {
		pattern = "%d.jpg"
	}

	x := mat.NewDense(count, Bins, nil)
	for i := range count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf(pattern, i))
		img, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		x.SetRow(i, Histogram(img))
		if opts.Progress != nil {
			opts.Progress(i+1, count)
		}
	}
	slog.Debug("face: loaded histograms", "dir", dir, "count", count)
	return x, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("face: open image: %w", err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("face: decode %s: %w", path, err)
	}
	slog.Debug("face: decoded image", "path", path, "format", format, "bounds", img.Bounds())
	return img, nil
}
