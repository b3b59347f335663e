package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes one "section,step,field,value" row per field
func WriteCSV(w io.Writer, sections []Section) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"section", "step", "field", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range sections {
		for _, f := range s.Fields {
			if err := writer.Write([]string{s.Title, string(s.Step), f.Label, f.Value}); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
