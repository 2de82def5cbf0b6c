package bootstrap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
)

// Template is the declarative three-level hierarchy description consumed
// by template mode. Display names are synthesized from positional index
// and the raw IDs; the template never carries display names directly.
type Template struct {
	Administrations []AdministrationTemplate `json:"administrations" validate:"required,min=1,dive"`
}

// AdministrationTemplate describes one administration and its tracks.
type AdministrationTemplate struct {
	AdminID string          `json:"adminId" validate:"required"`
	Tracks  []TrackTemplate `json:"tracks" validate:"dive"`
}

// TrackTemplate describes one track and its stations.
type TrackTemplate struct {
	TrackID  string   `json:"trackId" validate:"required"`
	Stations []string `json:"stations" validate:"dive,required"`
}

var validate = validator.New()

// ParseTemplate decodes and validates a JSON template.
func ParseTemplate(r io.Reader) (*Template, error) {
	var tmpl Template
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("bootstrap: decode template: %w", err)
	}
	if err := validate.Struct(&tmpl); err != nil {
		return nil, fmt.Errorf("bootstrap: invalid template: %w", err)
	}
	return &tmpl, nil
}

// LoadTemplate reads and validates a template file.
func LoadTemplate(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open template: %w", err)
	}
	defer f.Close()
	return ParseTemplate(f)
}
