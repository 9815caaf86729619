package export

import (
	"encoding/json"
	"io"
)

const MetricsFile = "metrics.json"

// WriteMetrics writes v as indented JSON.
func WriteMetrics(path string, v any) error {
	return writeFile(path, func(w io.Writer) error {
		return EncodeMetrics(w, v)
	})
}

func EncodeMetrics(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
