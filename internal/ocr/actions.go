package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/db"
	ocrpkg "github.com/dtnitsch/docufind/pkg/ocr"
	"github.com/dtnitsch/docufind/pkg/relay"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func OCRAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	src := c.String("src")
	if src == "" {
		return fmt.Errorf("no image provided: use --src PATH_OR_URL")
	}

	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	settings, err := database.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	engine := ocrpkg.Tesseract{Binary: c.String("tesseract")}
	svc := ocrpkg.NewService(engine, settings.OCREnabled, c.String("lang"), logger)

	itemID := c.String("item-id")
	if itemID == "" {
		itemID = uuid.NewString()
	}
	res, err := ExtractViaRelay(c.Context, svc, models.OCRRequest{Src: src, ItemID: itemID}, c.Duration("timeout"), logger)
	if err != nil {
		return err
	}

	format := c.String("format")
	if format != "" && format != "text" {
		return common.Render(os.Stdout, format, res)
	}
	if res.Error != "" {
		return cli.Exit("OCR failed: "+res.Error, 1)
	}
	fmt.Println(res.Text)
	return nil
}

// ExtractViaRelay sends an EXTRACT_TEXT_OCR request over a relay bus and
// waits for the correlated OCR_RESULT.
func ExtractViaRelay(ctx context.Context, svc *ocrpkg.Service, req models.OCRRequest, timeout time.Duration, logger *slog.Logger) (models.OCRResult, error) {
	bus := relay.NewBus(logger)
	bus.Register(relay.KindExtractOCR, func(ctx context.Context, env relay.Envelope) relay.Envelope {
		r := env.Payload.(models.OCRRequest)
		return relay.Envelope{Kind: relay.KindOCRResult, ItemID: r.ItemID, Payload: svc.Extract(ctx, r)}
	})

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := bus.Send(ctx, relay.Envelope{Kind: relay.KindExtractOCR, ItemID: req.ItemID, Payload: req}); err != nil {
		return models.OCRResult{}, err
	}
	env, err := bus.Await(ctx, req.ItemID)
	if err != nil {
		return models.OCRResult{}, fmt.Errorf("no OCR result for %s: %w", req.ItemID, err)
	}
	return env.Payload.(models.OCRResult), nil
}
