//go:build windows

package procquery

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// snapshotImages parses `tasklist /FO CSV /NH`, one quoted row per process
// with the image name in the first column.
func snapshotImages(ctx context.Context) ([]string, error) {
	out, err := runHidden(ctx, "tasklist", "/FO", "CSV", "/NH")
	if err != nil {
		return nil, fmt.Errorf("tasklist: %w", err)
	}
	return parseTasklistCSV(out)
}

func parseTasklistCSV(out []byte) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(out))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var names []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse tasklist output: %w", err)
		}
		if len(record) > 0 && record[0] != "" {
			names = append(names, record[0])
		}
	}
	return names, nil
}
