package atlas

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"lipsync/internal/mouth"
)

func whiteBase(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func isBlack(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return r < 0x0200 && g < 0x0200 && b < 0x0200 && a > 0xfe00
}

func TestRenderMouthIsIdempotent(t *testing.T) {
	base := Placeholder(400)
	for _, sym := range mouth.All() {
		first := RenderMouth(base, sym)
		second := RenderMouth(base, sym)
		if !bytes.Equal(first.Pix, second.Pix) {
			t.Fatalf("rendering %q twice produced different pixels", sym)
		}
	}
}

func TestRenderMouthDoesNotModifyBase(t *testing.T) {
	base := whiteBase(200, 200)
	before := append([]byte(nil), base.Pix...)
	_ = RenderMouth(base, mouth.A)
	if !bytes.Equal(before, base.Pix) {
		t.Fatal("base image was modified")
	}
}

func TestRenderMouthDrawsShape(t *testing.T) {
	base := whiteBase(200, 200)

	open := RenderMouth(base, mouth.A)
	if !isBlack(open.At(100, 130)) {
		t.Fatalf("expected A mouth centre to be black, got %v", open.At(100, 130))
	}
	if isBlack(open.At(100, 150)) {
		t.Fatal("A mouth should not extend below y=140")
	}

	rest := RenderMouth(base, mouth.Rest)
	if !isBlack(rest.At(100, 125)) {
		t.Fatalf("expected rest line at y=125, got %v", rest.At(100, 125))
	}
	if isBlack(rest.At(100, 130)) {
		t.Fatal("rest line should be thin")
	}
	if isBlack(rest.At(80, 125)) {
		t.Fatal("rest line should start at x=85")
	}

	unknown := RenderMouth(base, mouth.Symbol('O'))
	if !bytes.Equal(unknown.Pix, rest.Pix) {
		t.Fatal("unknown symbol should render as rest")
	}
}

func TestRenderMouthScalesWithBase(t *testing.T) {
	big := RenderMouth(whiteBase(400, 400), mouth.C)
	if !isBlack(big.At(200, 250)) {
		t.Fatalf("expected C rectangle at scaled position, got %v", big.At(200, 250))
	}
	if isBlack(big.At(200, 265)) {
		t.Fatal("C rectangle should end at y=260 on a 400px base")
	}
}

func TestRenderMouthNormalizesOrigin(t *testing.T) {
	base := image.NewRGBA(image.Rect(10, 10, 210, 210))
	draw.Draw(base, base.Bounds(), image.NewUniform(color.White), base.Bounds().Min, draw.Src)
	out := RenderMouth(base, mouth.A)
	if out.Bounds() != image.Rect(0, 0, 200, 200) {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	if !isBlack(out.At(100, 130)) {
		t.Fatal("expected mouth drawn relative to image origin")
	}
}

func TestRenderAllSymbolsDistinct(t *testing.T) {
	face := BaseFace{Image: Placeholder(200), Tier: TierPlaceholder}
	a := Render(face)
	if got := len(a.Symbols()); got != len(mouth.All()) {
		t.Fatalf("expected %d symbols, got %d", len(mouth.All()), got)
	}
	seen := map[string]mouth.Symbol{}
	for _, sym := range mouth.All() {
		img, ok := a.Image(sym)
		if !ok {
			t.Fatalf("missing image for %q", sym)
		}
		key := string(img.(*image.RGBA).Pix)
		if other, dup := seen[key]; dup {
			t.Fatalf("%q and %q rendered identically", sym, other)
		}
		seen[key] = sym
	}
	if _, ok := a.Lookup(mouth.A); ok {
		t.Fatal("in-memory atlas should have no files")
	}
	if a.Tier() != TierPlaceholder || a.Fingerprint() == "" {
		t.Fatalf("unexpected tier %q fingerprint %q", a.Tier(), a.Fingerprint())
	}
	if w, h := a.Size(); w != 200 || h != 200 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
}
