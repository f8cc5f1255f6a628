package output

import (
	"fmt"
	"io"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// Formatter renders a contribution report to a writer
type Formatter interface {
	Format(report *models.ContributionReport, w io.Writer) error
}

// Supported format names, as accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// NewFormatter creates the formatter for the given format name
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case FormatText, "":
		return &TextFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected text, json, or yaml)", format)
	}
}
