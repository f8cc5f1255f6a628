package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// YAMLFormatter emits the full report as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(report *models.ContributionReport, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
