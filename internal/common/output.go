package common

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// NewLogger builds the JSON stderr logger shared by every action.
// --quiet keeps errors only, --verbose adds debug output.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// Render writes v as JSON or YAML. Table output is command specific and
// not handled here.
func Render(w io.Writer, format string, v interface{}) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	case FormatYAML:
		yamlBytes, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if _, err := w.Write(yamlBytes); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s (use: json, yaml, or table)", format)
	}
	return nil
}
