package atlas

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"path/filepath"

	"lukechampine.com/blake3"

	"lipsync/internal/mouth"
)

// Atlas maps mouth shapes to rendered images and, once materialized, to PNG
// files on disk.
type Atlas struct {
	dir         string
	tier        string
	bounds      image.Rectangle
	fingerprint string
	images      map[mouth.Symbol]image.Image
	paths       map[mouth.Symbol]string
}

func newAtlas(tier string, bounds image.Rectangle, fingerprint string) *Atlas {
	return &Atlas{
		tier:        tier,
		bounds:      bounds,
		fingerprint: fingerprint,
		images:      make(map[mouth.Symbol]image.Image, len(mouth.All())),
		paths:       make(map[mouth.Symbol]string, len(mouth.All())),
	}
}

// AssetName returns the conventional file name for symbol.
func AssetName(symbol mouth.Symbol) string {
	return fmt.Sprintf("avatar_%s.png", symbol)
}

// Lookup returns the on-disk image for symbol. It reports false for symbols
// that were never materialized or whose file was missing when the atlas was
// opened.
func (a *Atlas) Lookup(symbol mouth.Symbol) (string, bool) {
	if a == nil {
		return "", false
	}
	path, ok := a.paths[symbol]
	return path, ok
}

// Image returns the rendered image for symbol, if present in memory.
func (a *Atlas) Image(symbol mouth.Symbol) (image.Image, bool) {
	if a == nil {
		return nil, false
	}
	img, ok := a.images[symbol]
	return img, ok
}

// Symbols lists the symbols with an image or file, in alphabet order.
func (a *Atlas) Symbols() []mouth.Symbol {
	if a == nil {
		return nil
	}
	out := make([]mouth.Symbol, 0, len(a.paths))
	for _, sym := range mouth.All() {
		_, onDisk := a.paths[sym]
		_, inMemory := a.images[sym]
		if onDisk || inMemory {
			out = append(out, sym)
		}
	}
	return out
}

func (a *Atlas) Fingerprint() string { return a.fingerprint }

func (a *Atlas) Tier() string { return a.tier }

func (a *Atlas) Dir() string { return a.dir }

// Size returns the image dimensions shared by every entry.
func (a *Atlas) Size() (int, int) { return a.bounds.Dx(), a.bounds.Dy() }

// Fingerprint hashes the base face pixels, dimensions and renderer version.
func Fingerprint(img *image.RGBA) string {
	h := blake3.New(32, nil)
	var header [24]byte
	binary.LittleEndian.PutUint64(header[0:], uint64(RendererVersion))
	binary.LittleEndian.PutUint64(header[8:], uint64(img.Bounds().Dx()))
	binary.LittleEndian.PutUint64(header[16:], uint64(img.Bounds().Dy()))
	_, _ = h.Write(header[:])
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		_, _ = h.Write(img.Pix[start : start+rowBytes])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func assetPath(dir string, symbol mouth.Symbol) string {
	return filepath.Join(dir, AssetName(symbol))
}
