package video

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"lipsync/internal/logging"
	"lipsync/internal/services"
)

// Archiver re-encodes a finished render for long-term storage.
type Archiver interface {
	Archive(ctx context.Context, inputPath, outputDir string) (string, error)
}

var encodeAV1 = func(ctx context.Context, inputPath, outputDir string, rep draptolib.Reporter) error {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return err
	}
	_, err = encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep)
	return err
}

// DraptoArchiver encodes renders to AV1 MKV through the Drapto library.
type DraptoArchiver struct {
	logger *slog.Logger
}

// NewDraptoArchiver constructs an archiver that reports progress to logger.
func NewDraptoArchiver(logger *slog.Logger) *DraptoArchiver {
	return &DraptoArchiver{logger: logging.NewComponentLogger(logger, "archiver")}
}

// Archive encodes inputPath into outputDir and returns the archive path.
func (d *DraptoArchiver) Archive(ctx context.Context, inputPath, outputDir string) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", errors.New("input path required")
	}
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return "", errors.New("output directory required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "archive", "prepare", "create archive directory", err)
	}

	logger := logging.WithContext(ctx, d.logger)
	if err := encodeAV1(ctx, inputPath, outputDir, newLogReporter(logger)); err != nil {
		return "", services.Wrap(services.ErrEncoding, "archive", "drapto", "encode av1", err)
	}
	return ArchivePath(inputPath, outputDir), nil
}

// ArchivePath returns where Drapto writes the encode of inputPath.
func ArchivePath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}

var _ Archiver = (*DraptoArchiver)(nil)
