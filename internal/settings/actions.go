package settings

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/db"
	"github.com/dtnitsch/docufind/pkg/summarize"
	"github.com/urfave/cli/v2"
)

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// Masked returns s with the API key hidden.
func Masked(s models.Settings) models.Settings {
	s.GeminiAPIKey = MaskKey(s.GeminiAPIKey)
	return s
}

func ShowAction(c *cli.Context) error {
	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	s, err := database.LoadSettings()
	if err != nil {
		return err
	}
	s = Masked(s)

	if c.String("format") != common.FormatTable {
		return common.Render(os.Stdout, c.String("format"), s)
	}
	for _, key := range models.SettingKeys {
		value, _ := s.Get(key)
		fmt.Printf("%-18s %s\n", key, value)
	}
	return nil
}

// SetAction stores KEY VALUE.
func SetAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: docufind settings set KEY VALUE (keys: %s)", strings.Join(models.SettingKeys, ", "))
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.SaveSetting(key, value); err != nil {
		return err
	}
	fmt.Printf("%s updated\n", key)
	return nil
}

func ResetAction(c *cli.Context) error {
	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.ResetSettings(); err != nil {
		return err
	}
	fmt.Println("Settings reset to defaults")
	return nil
}

// TestAction sends a probe request to the configured backend.
func TestAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	s, err := database.LoadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	client := summarize.NewClient(s.BackendURL)
	if err := client.Ping(ctx); err != nil {
		logger.Error("backend test failed", "backend", client.BaseURL(), "error", err)
		return cli.Exit(fmt.Sprintf("Backend connection failed: %v", err), 1)
	}
	fmt.Printf("Backend connection successful: %s\n", client.BaseURL())
	return nil
}
