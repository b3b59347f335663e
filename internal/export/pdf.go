package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize      string
	Title         string
	DateFormat    string
	FontFamily    string
	FontSize      float64
	TitleFontSize float64
	LabelWidth    float64
	HeaderColor   [3]int
	Margin        float64
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:      "A4",
		Title:         "Project verification application",
		DateFormat:    "2006-01-02 15:04",
		FontFamily:    "Arial",
		FontSize:      10,
		TitleFontSize: 16,
		LabelWidth:    60,
		HeaderColor:   [3]int{68, 114, 196},
		Margin:        15,
	}
}

// PDFGenerator renders an application summary as PDF
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
	now     func() time.Time
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	pdf := gofpdf.New("P", "mm", options.PageSize, "")
	pdf.SetMargins(options.Margin, options.Margin+5, options.Margin)
	pdf.SetAutoPageBreak(true, options.Margin+5)

	g := &PDFGenerator{pdf: pdf, options: options, now: time.Now}
	g.setFooter()
	return g
}

// Generate lays out the sections for project slug
func (g *PDFGenerator) Generate(slug string, sections []Section) error {
	tr := g.pdf.UnicodeTranslatorFromDescriptor("")
	g.pdf.AddPage()

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.CellFormat(0, 10, tr(g.options.Title), "", 1, "C", false, 0, "")
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
	g.pdf.SetTextColor(100, 100, 100)
	g.pdf.CellFormat(0, 8, tr(slug), "", 1, "C", false, 0, "")
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize-1)
	g.pdf.SetTextColor(128, 128, 128)
	g.pdf.CellFormat(0, 6, "Generated: "+g.now().Format(g.options.DateFormat), "", 1, "R", false, 0, "")

	for _, s := range sections {
		g.addSection(tr, s)
	}
	return g.pdf.Error()
}

func (g *PDFGenerator) addSection(tr func(string) string, s Section) {
	g.pdf.Ln(6)
	c := g.options.HeaderColor
	g.pdf.SetFillColor(c[0], c[1], c[2])
	g.pdf.SetTextColor(255, 255, 255)
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+1)
	g.pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", true, 0, "")

	g.pdf.SetTextColor(0, 0, 0)
	if len(s.Fields) == 0 {
		g.pdf.SetFont(g.options.FontFamily, "I", g.options.FontSize)
		g.pdf.CellFormat(0, 7, "Not provided", "", 1, "L", false, 0, "")
		return
	}
	for _, f := range s.Fields {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.CellFormat(g.options.LabelWidth, 7, tr(f.Label), "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.MultiCell(0, 7, tr(f.Value), "", "L", false)
	}
}

func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		g.pdf.SetY(-15)
		g.pdf.SetFont(g.options.FontFamily, "", 8)
		g.pdf.SetTextColor(128, 128, 128)
		g.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", g.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}

// WriteTo writes the PDF to a writer
func (g *PDFGenerator) WriteTo(w io.Writer) error {
	return g.pdf.Output(w)
}

// OutputToBytes returns the PDF as bytes
func (g *PDFGenerator) OutputToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
