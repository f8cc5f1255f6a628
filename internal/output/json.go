package output

import (
	"encoding/json"
	"io"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// JSONFormatter emits the full report as indented JSON for scripting
type JSONFormatter struct{}

func (f *JSONFormatter) Format(report *models.ContributionReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
