package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/flowsim/internal/sim"
)

// ExportData is a self-contained snapshot for external renderers.
type ExportData struct {
	Field      string      `json:"field"`
	Integrator string      `json:"integrator"`
	Tick       int         `json:"tick"`
	Time       float64     `json:"time"`
	Dim        int         `json:"dim"`
	Positions  [][]float64 `json:"positions"`
	Ages       []float64   `json:"ages,omitempty"`
	Energies   []float64   `json:"energies,omitempty"`
}

func NewExportData(field, integrator string, s sim.Snapshot) ExportData {
	return ExportData{
		Field:      field,
		Integrator: integrator,
		Tick:       s.Tick,
		Time:       s.Time,
		Dim:        s.Dim,
		Positions:  s.Batch().ToRows(),
		Ages:       s.Ages,
		Energies:   s.Energies,
	}
}

func ExportJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
