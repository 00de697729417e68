package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestScale_KeepsAspect(t *testing.T) {
	got := Scale(solid(200, 100, color.White), 40, 40).Bounds()
	if got.Dx() != 40 || got.Dy() != 20 {
		t.Fatalf("scaled bounds = %v, want 40x20", got)
	}
}

func TestScale_Degenerate(t *testing.T) {
	if !Scale(solid(10, 10, color.White), 0, 10).Bounds().Empty() {
		t.Fatal("expected empty image for zero width")
	}
}

func TestRender_Size(t *testing.T) {
	out := Render(solid(64, 64, color.RGBA{R: 255, A: 255}), 8, 4)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if strings.Count(lines[0], "▀") != 8 {
		t.Fatalf("expected 8 cells in first line, got %q", lines[0])
	}
}

func TestDecode_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(4, 4, color.Black)); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
