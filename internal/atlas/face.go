package atlas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"lipsync/internal/logging"
)

const (
	TierPortrait    = "portrait"
	TierPlaceholder = "placeholder"

	placeholderCanvas = 400.0
)

// Source produces a candidate base face.
type Source interface {
	Tier() string
	Load() (image.Image, error)
}

// Attempt records the outcome of one Source in the fallback chain.
type Attempt struct {
	Tier  string
	Error string
}

// BaseFace is the image every mouth shape is drawn onto, tagged with the tier
// that produced it.
type BaseFace struct {
	Image    *image.RGBA
	Tier     string
	Attempts []Attempt
}

// LoadBaseFace tries sources in order and returns the first usable image.
// Failures are logged as warnings and recorded in Attempts. An error is only
// returned when every source fails; a chain ending in PlaceholderSource never
// does.
func LoadBaseFace(logger *slog.Logger, sources ...Source) (BaseFace, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var face BaseFace
	for _, src := range sources {
		img, err := src.Load()
		if err != nil {
			face.Attempts = append(face.Attempts, Attempt{Tier: src.Tier(), Error: err.Error()})
			logging.WarnWithContext(logger, "base face source unavailable; trying next", "base_face_fallback",
				logging.String("tier", src.Tier()),
				logging.String(logging.FieldErrorHint, "check avatar.portrait_path points to a readable PNG, JPEG, GIF or WebP"),
				logging.String(logging.FieldImpact, "atlas uses a fallback face"),
				logging.Error(err),
			)
			continue
		}
		face.Image = toRGBA(img)
		face.Tier = src.Tier()
		face.Attempts = append(face.Attempts, Attempt{Tier: src.Tier()})
		logger.Info("base face loaded",
			logging.String("tier", face.Tier),
			logging.Int("width", face.Image.Bounds().Dx()),
			logging.Int("height", face.Image.Bounds().Dy()),
		)
		return face, nil
	}
	return face, errors.New("no base face source succeeded")
}

// DefaultSources returns the portrait-then-placeholder chain. An empty
// portrait path skips the portrait tier.
func DefaultSources(portraitPath string, maxDimension, placeholderSize int) []Source {
	sources := make([]Source, 0, 2)
	if strings.TrimSpace(portraitPath) != "" {
		sources = append(sources, PortraitSource{Path: portraitPath, MaxDimension: maxDimension})
	}
	return append(sources, PlaceholderSource{Size: placeholderSize})
}

// PortraitSource decodes a user-supplied image and shrinks it to fit within
// MaxDimension on both sides, preserving aspect ratio. Smaller images are
// left untouched.
type PortraitSource struct {
	Path         string
	MaxDimension int
}

func (PortraitSource) Tier() string { return TierPortrait }

func (p PortraitSource) Load() (image.Image, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open portrait: %w", err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode portrait %s: %w", p.Path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("portrait %s (%s) has no pixels", p.Path, format)
	}
	return thumbnail(img, p.MaxDimension), nil
}

func thumbnail(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}
	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// PlaceholderSource draws a simple face: light blue background, head, eyes
// and nose. Size is the canvas side in pixels.
type PlaceholderSource struct {
	Size int
}

func (PlaceholderSource) Tier() string { return TierPlaceholder }

func (p PlaceholderSource) Load() (image.Image, error) {
	return Placeholder(p.Size), nil
}

var (
	colorLightBlue = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	colorPeachPuff = color.RGBA{R: 255, G: 218, B: 185, A: 255}
	colorNose      = color.RGBA{R: 233, G: 186, B: 150, A: 255}
)

// Placeholder renders the fallback face at size x size.
func Placeholder(size int) *image.RGBA {
	if size <= 0 {
		size = int(placeholderCanvas)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorLightBlue), image.Point{}, draw.Src)

	s := float64(size) / placeholderCanvas
	fillEllipse(img, 100*s, 100*s, 300*s, 300*s, colorPeachPuff)
	fillEllipse(img, 140*s, 140*s, 180*s, 180*s, color.White)
	fillEllipse(img, 220*s, 140*s, 260*s, 180*s, color.White)
	fillEllipse(img, 150*s, 150*s, 170*s, 170*s, color.Black)
	fillEllipse(img, 230*s, 150*s, 250*s, 170*s, color.Black)
	fillPolygon(img, [][2]float64{{200 * s, 180 * s}, {190 * s, 220 * s}, {210 * s, 220 * s}}, colorNose)
	return img
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
