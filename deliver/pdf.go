package deliver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/dshills/tripgraph/planner"
)

// PDFExporter writes itineraries to a directory as PDF documents.
type PDFExporter struct {
	// Dir is the output directory, created on first export. Defaults to
	// the current directory.
	Dir string
}

// Export renders the itinerary as a PDF and returns the written path. An
// empty name derives one from the destination and date.
func (p *PDFExporter) Export(state planner.PlanState, name string) (string, error) {
	dir := p.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	if name == "" {
		name = strings.TrimSuffix(exportName(state), ".txt") + ".pdf"
	}
	path := filepath.Join(dir, name)

	if err := buildPDF(state).OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write itinerary pdf: %w", err)
	}
	return path, nil
}

// buildPDF lays the itinerary out as a titled A4 document: trip header,
// day-by-day plan, and the gathered supporting data.
func buildPDF(state planner.PlanState) *fpdf.Fpdf {
	req := state.RequestFacets

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Travel Itinerary", true)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, "Travel Itinerary", "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 11)
	if req.Destination != "" {
		doc.CellFormat(0, 6, tr("Destination: "+req.Destination), "", 1, "L", false, 0, "")
	}
	if req.DepartDate != "" {
		dates := req.DepartDate
		if req.ReturnDate != "" {
			dates += " to " + req.ReturnDate
		}
		doc.CellFormat(0, 6, tr("Dates: "+dates), "", 1, "L", false, 0, "")
	}
	doc.CellFormat(0, 6, fmt.Sprintf("Duration: %d day(s)", req.Duration()), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, "Generated: "+time.Now().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	doc.Ln(4)

	plan := state.FinalPlan
	if plan == "" {
		plan = state.DraftPlan
	}
	doc.MultiCell(0, 5.5, tr(plan), "", "L", false)

	if len(state.ToolResults) > 0 {
		doc.Ln(4)
		doc.SetFont("Helvetica", "B", 13)
		doc.CellFormat(0, 8, "Supporting data", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, tr(planner.FormatToolResults(state.ToolResults)), "", "L", false)

		if degradedResults(state) {
			doc.Ln(2)
			doc.SetFont("Helvetica", "I", 10)
			doc.MultiCell(0, 5, "Some supporting data is sample or partial. Verify details before booking.", "", "L", false)
		}
	}

	return doc
}
