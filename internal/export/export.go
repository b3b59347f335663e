package export

import (
	"errors"
	"fmt"
	"io"

	"project-verification/portal-backend/internal/verification"
)

// ErrNoRecord is returned when there is nothing to export yet
var ErrNoRecord = errors.New("no verification form to export")

// Write renders rec for project slug in format
func Write(w io.Writer, format Format, slug string, rec *verification.Record) error {
	if rec == nil {
		return ErrNoRecord
	}
	sections := Summarize(rec)

	switch format {
	case FormatPDF:
		g := NewPDFGenerator(DefaultPDFOptions())
		if err := g.Generate(slug, sections); err != nil {
			return fmt.Errorf("failed to generate pdf: %w", err)
		}
		return g.WriteTo(w)
	case FormatExcel:
		e := NewExcelExporter("Verification")
		defer e.Close()
		if err := e.Write(sections); err != nil {
			return err
		}
		return e.WriteTo(w)
	case FormatCSV:
		return WriteCSV(w, sections)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// Filename returns the download name for slug in format
func Filename(slug string, format Format) string {
	return fmt.Sprintf("%s-verification.%s", slug, format)
}
