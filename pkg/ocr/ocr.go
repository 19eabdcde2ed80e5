// Package ocr recognizes text in images referenced by scanned items.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dtnitsch/docufind/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

// ErrDisabled is reported when OCR is switched off in settings.
var ErrDisabled = errors.New("OCR disabled")

// DefaultLang is the tesseract language used when none is set.
const DefaultLang = "eng"

// Engine turns an image file into text.
type Engine interface {
	Recognize(ctx context.Context, imagePath, lang string) (string, error)
}

// Tesseract runs the tesseract command line tool.
type Tesseract struct {
	Binary string
}

// Recognize runs `tesseract <image> stdout -l <lang>`.
func (t Tesseract) Recognize(ctx context.Context, imagePath, lang string) (string, error) {
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, imagePath, "stdout", "-l", lang)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Service loads images and hands them to an Engine.
type Service struct {
	http    *resty.Client
	engine  Engine
	enabled bool
	lang    string
	logger  *slog.Logger
}

// NewService creates a Service. enabled mirrors the ocrEnabled setting.
func NewService(engine Engine, enabled bool, lang string, logger *slog.Logger) *Service {
	if lang == "" {
		lang = DefaultLang
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		http: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "docufind/1.0"),
		engine:  engine,
		enabled: enabled,
		lang:    lang,
		logger:  logger,
	}
}

// Extract recognizes the text of req.Src. Failures are reported in
// OCRResult.Error.
func (s *Service) Extract(ctx context.Context, req models.OCRRequest) models.OCRResult {
	result := models.OCRResult{ItemID: req.ItemID}
	text, err := s.extract(ctx, req.Src)
	if err != nil {
		s.logger.Error("OCR failed", "item_id", req.ItemID, "src", req.Src, "error", err)
		result.Error = err.Error()
		return result
	}
	result.Text = text
	return result
}

func (s *Service) extract(ctx context.Context, src string) (string, error) {
	if !s.enabled {
		return "", ErrDisabled
	}

	data, err := s.load(ctx, src)
	if err != nil {
		return "", err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("not an image: %s", mtype.String())
	}

	tmp, err := os.CreateTemp("", "docufind-ocr-*"+mtype.Extension())
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	text, err := s.engine.Recognize(ctx, tmp.Name(), s.lang)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// load reads an http(s) URL, a base64 data URL, or a local path.
func (s *Service) load(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, errors.New("no image source")
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		resp, err := s.http.R().SetContext(ctx).Get(src)
		if err != nil {
			return nil, fmt.Errorf("failed to download image: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("failed to download image, status code: %d", resp.StatusCode())
		}
		return resp.Body(), nil
	case strings.HasPrefix(src, "data:"):
		comma := strings.IndexByte(src, ',')
		if comma < 0 || !strings.Contains(src[:comma], ";base64") {
			return nil, errors.New("unsupported data URL")
		}
		data, err := base64.StdEncoding.DecodeString(src[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode data URL: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
