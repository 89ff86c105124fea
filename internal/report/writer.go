// Package report prints pipeline problems to the console and writes them to a
// per-sitemap problems file.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitemapdiag/internal/diag"
)

// Console messages and file naming.
const (
	SuccessMessage = "Good Job! There is no problem on your sitemap"
	Header         = "\n~~List of problems~~"
	FileSuffix     = "-sitemap-problems.txt"
)

// Config captures where problem files are written.
type Config struct {
	// OutputDir is the directory the problems file is written under.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// Writer renders problems to an io.Writer and to disk.
type Writer struct {
	out     io.Writer
	baseDir string
	logger  *zap.Logger
}

// New creates a Writer printing to out and writing files under cfg.OutputDir.
func New(cfg Config, out io.Writer, logger *zap.Logger) (*Writer, error) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{out: out, baseDir: cfg.OutputDir, logger: logger}, nil
}

// FileName returns the problems file name for a sitemap. The URL is used
// verbatim, so its slashes turn into directories.
func FileName(sitemapURL string) string {
	return sitemapURL + FileSuffix
}

// Path resolves the problems file for sitemapURL under the output directory.
func (w *Writer) Path(sitemapURL string) (string, error) {
	fullPath := filepath.Join(w.baseDir, FileName(sitemapURL))
	rel, err := filepath.Rel(filepath.Clean(w.baseDir), fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected for %q", sitemapURL)
	}
	return fullPath, nil
}

// Write prints the problems and, when there are any, writes one line per
// problem to a freshly created file. It returns the file path, or "" when
// nothing was written. Problems reach the console even if the file fails.
func (w *Writer) Write(ctx context.Context, sitemapURL string, problems []diag.Problem) (string, error) {
	if len(problems) == 0 {
		w.println(SuccessMessage)
		return "", nil
	}

	w.println(Header)
	for _, p := range problems {
		w.println(p.String())
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	path, err := w.Path(sitemapURL)
	if err != nil {
		return "", err
	}
	if err := writeLines(path, problems); err != nil {
		return "", err
	}
	w.logger.Info("problems file written", zap.String("path", path), zap.Int("problems", len(problems)))
	return path, nil
}

func (w *Writer) println(line string) {
	if _, err := fmt.Fprintln(w.out, line); err != nil {
		w.logger.Debug("console write failed", zap.Error(err))
	}
}

func writeLines(path string, problems []diag.Problem) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create parent directories: %w", err)
	}
	// #nosec G304 -- path is resolved under the configured output directory.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create problems file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close problems file: %w", cerr)
		}
	}()

	buf := bufio.NewWriter(f)
	for _, p := range problems {
		if _, err := buf.WriteString(p.String() + "\n"); err != nil {
			return fmt.Errorf("failed to write problems file: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write problems file: %w", err)
	}
	return nil
}
