package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

type ExportData struct {
	RunMetadata
	Steps   int      `json:"steps"`
	Samples []Sample `json:"samples"`
}

// ExportJSON writes the metadata and samples of a run to path.
func ExportJSON(path string, meta RunMetadata, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export")
	}
	defer file.Close()
	return EncodeJSON(file, meta, samples)
}

func EncodeJSON(w io.Writer, meta RunMetadata, samples []Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(ExportData{RunMetadata: meta, Steps: len(samples), Samples: samples}), "encode export")
}
