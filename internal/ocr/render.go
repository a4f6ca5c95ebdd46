package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultDPI renders at twice the 72pt user-space resolution.
const DefaultDPI = 144

// ErrNoImage is returned when a renderer has nothing to offer for a page.
var ErrNoImage = errors.New("no page image")

// Renderer produces an image of one PDF page.
type Renderer interface {
	RenderPage(ctx context.Context, path string, page int) ([]byte, error)
}

// PopplerRenderer rasterizes pages with pdftoppm (poppler-utils).
type PopplerRenderer struct {
	DPI int
}

// RenderPage renders page as PNG.
func (r PopplerRenderer) RenderPage(ctx context.Context, path string, page int) ([]byte, error) {
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	tmpDir, err := os.MkdirTemp("", "docoutline-page-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		path,
		prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	return data, nil
}

// EmbeddedImageRenderer returns the largest image embedded on a page. For
// scanned PDFs this is usually the scan itself.
type EmbeddedImageRenderer struct{}

// ocrFileTypes are the embedded image encodings tesseract can read directly.
var ocrFileTypes = map[string]bool{"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true}

// RenderPage extracts page images with pdfcpu.
func (EmbeddedImageRenderer) RenderPage(ctx context.Context, path string, page int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	// ExtractImages yields nothing for a page past the end.
	n, err := api.PageCount(f, conf)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if page < 1 || page > n {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, n)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind pdf: %w", err)
	}

	var best []byte
	digest := func(img model.Image, _ bool, _ int) error {
		if !ocrFileTypes[strings.ToLower(img.FileType)] {
			return nil
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, img); err != nil {
			return fmt.Errorf("read image %s: %w", img.Name, err)
		}
		if buf.Len() > len(best) {
			best = buf.Bytes()
		}
		return nil
	}
	if err := api.ExtractImages(f, []string{strconv.Itoa(page)}, digest, conf); err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}
	if best == nil {
		return nil, ErrNoImage
	}
	return best, nil
}

// ChainRenderer tries each renderer in turn and returns the first image.
type ChainRenderer []Renderer

// RenderPage returns the first successful render, or all errors joined.
func (c ChainRenderer) RenderPage(ctx context.Context, path string, page int) ([]byte, error) {
	var errs []error
	for _, r := range c {
		img, err := r.RenderPage(ctx, path, page)
		if err == nil && len(img) > 0 {
			return img, nil
		}
		if err == nil {
			err = ErrNoImage
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrNoImage
	}
	return nil, errors.Join(errs...)
}
