package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"lipsync/internal/fileutil"
	"lipsync/internal/logging"
	"lipsync/internal/mouth"
	"lipsync/internal/services"
)

const (
	manifestName = "manifest.json"
	lockName     = ".atlas.lock"
)

// Manifest describes a materialized atlas directory.
type Manifest struct {
	Fingerprint     string   `json:"fingerprint"`
	Tier            string   `json:"tier"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	RendererVersion int      `json:"renderer_version"`
	Symbols         []string `json:"symbols"`
}

// Materialize renders every symbol from face and writes avatar_<S>.png files
// and a manifest into dir. Writes are atomic and serialized across processes
// with a lock file in dir.
func Materialize(face BaseFace, dir string, logger *slog.Logger) (*Atlas, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "atlas", "materialize", "create atlas directory", err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire atlas lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release atlas lock", logging.Error(err))
		}
	}()
	return materializeLocked(face, dir, logger)
}

func materializeLocked(face BaseFace, dir string, logger *slog.Logger) (*Atlas, error) {
	a := Render(face)
	a.dir = dir
	manifest := Manifest{
		Fingerprint:     a.fingerprint,
		Tier:            a.tier,
		Width:           a.bounds.Dx(),
		Height:          a.bounds.Dy(),
		RendererVersion: RendererVersion,
	}
	for _, sym := range mouth.All() {
		img := a.images[sym]
		path := assetPath(dir, sym)
		if err := fileutil.WriteAtomicFunc(path, 0o644, func(w io.Writer) error {
			return png.Encode(w, img)
		}); err != nil {
			return nil, fmt.Errorf("write %s: %w", AssetName(sym), err)
		}
		a.paths[sym] = path
		manifest.Symbols = append(manifest.Symbols, sym.String())
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode atlas manifest: %w", err)
	}
	if err := fileutil.WriteAtomic(filepath.Join(dir, manifestName), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write atlas manifest: %w", err)
	}
	logger.Info("atlas materialized",
		logging.String("dir", dir),
		logging.String("tier", a.tier),
		logging.Int("symbols", len(manifest.Symbols)),
		logging.String("fingerprint", shortFingerprint(a.fingerprint)),
	)
	return a, nil
}

// Open loads the atlas stored in dir. Images for symbols whose file is
// missing are left out, so Lookup reports false for them. Directories without
// a manifest are accepted as long as they hold avatar_<S>.png files.
func Open(dir string) (*Atlas, error) {
	manifest, err := readManifest(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	a := newAtlas(manifest.Tier, image.Rect(0, 0, manifest.Width, manifest.Height), manifest.Fingerprint)
	a.dir = dir
	for _, sym := range mouth.All() {
		path := assetPath(dir, sym)
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			a.paths[sym] = path
		}
	}
	if len(a.paths) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "atlas", "open", fmt.Sprintf("no atlas images in %s", dir), err)
	}
	return a, nil
}

// Ensure returns the atlas in dir when its fingerprint matches face, and
// rematerializes it otherwise.
func Ensure(face BaseFace, dir string, logger *slog.Logger) (*Atlas, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	want := Fingerprint(face.Image)
	if manifest, err := readManifest(dir); err == nil && manifest.Fingerprint == want {
		if a, err := Open(dir); err == nil && len(a.paths) == len(mouth.All()) {
			logger.Debug("atlas reused",
				logging.String("dir", dir),
				logging.String("fingerprint", shortFingerprint(want)),
			)
			return a, nil
		}
	}
	return Materialize(face, dir, logger)
}

func readManifest(dir string) (Manifest, error) {
	var manifest Manifest
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return manifest, err
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, services.Wrap(services.ErrValidation, "atlas", "open", "invalid manifest", err)
	}
	return manifest, nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
