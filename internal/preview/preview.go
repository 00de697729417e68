// Package preview turns cover art into a block-character picture that fits
// in a terminal cell grid.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode reads a JPEG, PNG, GIF or WebP image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// Scale fits src inside maxWidth x maxHeight pixels, keeping its aspect ratio.
func Scale(src image.Image, maxWidth, maxHeight int) *image.RGBA {
	bounds := src.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()
	if srcWidth == 0 || srcHeight == 0 || maxWidth <= 0 || maxHeight <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	scale := float64(maxWidth) / float64(srcWidth)
	if s := float64(maxHeight) / float64(srcHeight); s < scale {
		scale = s
	}
	newWidth := max(1, int(float64(srcWidth)*scale))
	newHeight := max(1, int(float64(srcHeight)*scale))

	dstRect := image.Rect(0, 0, newWidth, newHeight)
	scaled := image.NewRGBA(dstRect)
	xdraw.ApproxBiLinear.Scale(scaled, dstRect, src, bounds, draw.Over, nil)
	return scaled
}

// Render draws img in at most cols x rows terminal cells. Each cell shows
// two vertically stacked pixels using the upper half block.
func Render(img image.Image, cols, rows int) string {
	scaled := Scale(img, cols, rows*2)
	b := scaled.Bounds()
	if b.Empty() {
		return ""
	}

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := hex(scaled.At(x, y))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(top))
			if y+1 < b.Max.Y {
				style = style.Background(lipgloss.Color(hex(scaled.At(x, y+1))))
			}
			sb.WriteString(style.Render("▀"))
		}
		if y+2 < b.Max.Y {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
