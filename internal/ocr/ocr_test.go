package ocr

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/docufind/models"
	ocrpkg "github.com/dtnitsch/docufind/pkg/ocr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

type stubEngine struct{ text string }

func (s stubEngine) Recognize(_ context.Context, _, _ string) (string, error) {
	return s.text, nil
}

func TestExtractViaRelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0644))

	svc := ocrpkg.NewService(stubEngine{text: "TOTAL 12.50\n"}, true, "", nil)
	res, err := ExtractViaRelay(context.Background(), svc, models.OCRRequest{Src: path, ItemID: "2-0"}, 5*time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "2-0", res.ItemID)
	assert.Equal(t, "TOTAL 12.50", res.Text)
	assert.Empty(t, res.Error)
}

func TestExtractViaRelay_Disabled(t *testing.T) {
	svc := ocrpkg.NewService(stubEngine{}, false, "", nil)
	res, err := ExtractViaRelay(context.Background(), svc, models.OCRRequest{Src: "x.png", ItemID: "1"}, 5*time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, ocrpkg.ErrDisabled.Error(), res.Error)
}
