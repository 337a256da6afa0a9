package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"papermill/internal/logger"
)

// PDFRenderer prints HTML to PDF through headless Chrome.
type PDFRenderer struct {
	log *logger.Logger
}

// NewPDFRenderer creates a renderer.
func NewPDFRenderer(log *logger.Logger) *PDFRenderer {
	return &PDFRenderer{log: log}
}

// RenderFile loads an HTML file in headless Chrome and writes its printed
// PDF to pdfPath. Chrome is downloaded by the launcher if absent, so the
// caller should treat failures as non-fatal when PDF output is optional.
func (r *PDFRenderer) RenderFile(ctx context.Context, htmlPath, pdfPath string) (err error) {
	defer func() {
		// rod's Must helpers panic; surface them as errors instead.
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf rendering failed: %v", rec)
		}
	}()

	abs, err := absoluteFileURL(htmlPath)
	if err != nil {
		return err
	}

	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: abs})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load page: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
	})
	if err != nil {
		return fmt.Errorf("failed to print pdf: %w", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("failed to read pdf stream: %w", err)
	}

	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}

	r.log.Info("pdf rendered", "path", pdfPath, "bytes", len(data))

	return nil
}

func absoluteFileURL(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("html file not found: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return "file://" + abs, nil
}
