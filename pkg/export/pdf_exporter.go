package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// GradeCard holds the content of a per-student transcript.
type GradeCard struct {
	StudentName string
	RegNo       string
	Department  string
	Semester    int
	SGPA        float64
	CGPA        float64
	Subjects    []GradeCardRow
}

// GradeCardRow is one subject line of the transcript.
type GradeCardRow struct {
	Subject   string
	Internal1 float64
	Internal2 float64
	EndSem    float64
}

// PDFExporter renders grade cards and tabular datasets into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderGradeCard produces a one-page transcript for a student's semester.
func (e *PDFExporter) RenderGradeCard(card GradeCard) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "GRADE CARD", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, fmt.Sprintf("Name: %s", card.StudentName), "", 1, "", false, 0, "")
	if card.RegNo != "" {
		pdf.CellFormat(0, 7, fmt.Sprintf("Register No: %s", card.RegNo), "", 1, "", false, 0, "")
	}
	pdf.CellFormat(0, 7, fmt.Sprintf("Department: %s", card.Department), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Semester: %d", card.Semester), "", 1, "", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Subject", "Internal 1", "Internal 2", "End Sem"}
	widths := []float64{80, 36, 36, 38}
	pdf.SetFont("Arial", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range card.Subjects {
		pdf.CellFormat(widths[0], 7, row.Subject, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%.1f", row.Internal1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%.1f", row.Internal2), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.1f", row.EndSem), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, fmt.Sprintf("SGPA: %.2f    CGPA: %.2f", card.SGPA, card.CGPA), "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render grade card: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTable creates a PDF document with an optional title and table body.
func (e *PDFExporter) RenderTable(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
