package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"siteguard/models"
)

// RenderDailyReportPDF writes the report as an A4 PDF.
func RenderDailyReportPDF(doc models.DailyReportDocument, w io.Writer) error {
	titleCaser := cases.Title(language.Und)
	ws := doc.Workspace
	rep := doc.Report

	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; the naira sign has no glyph there.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(strings.ReplaceAll(s, "₦", "NGN ")) }

	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// --- Header ---
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, "DAILY SITE REPORT")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(190, 8, text(ws.Name))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, text("Location: "+ws.Location))
	pdf.Cell(95, 6, "Date: "+rep.Date)
	pdf.Ln(6)
	pdf.Cell(95, 6, text("Stage: "+titleCaser.String(ws.Stage)))
	pdf.Cell(95, 6, "Status: "+string(ws.Status))
	pdf.Ln(10)

	// --- Metrics ---
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(63, 8, "Progress", "1", 0, "C", true, 0, "")
	pdf.CellFormat(63, 8, "Safety Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(64, 8, "Low / Critical Stock", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	stats := models.ComputeResourceStatistics(ws.Resources)
	pdf.CellFormat(63, 8, fmt.Sprintf("%d%%", ws.Progress), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("%d/100", ws.SafetyScore), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("%d / %d", stats.ByStatus.Low, stats.ByStatus.Critical), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	section := func(title, body string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, text(body), "", "L", false)
		pdf.Ln(4)
	}
	list := func(title string, items []string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		if len(items) == 0 {
			pdf.Cell(190, 6, "None reported.")
			pdf.Ln(6)
		}
		for _, item := range items {
			pdf.MultiCell(190, 6, text("- "+item), "", "L", false)
		}
		pdf.Ln(4)
	}

	section("Executive Summary", rep.ExecutiveSummary)
	section("Progress Update", rep.ProgressUpdate)
	list("Key Issues", rep.KeyIssues)
	list("Recommendations", rep.Recommendations)

	// --- Inventory ---
	if len(ws.Resources) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(80, 8, "Resource", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 8, "Quantity", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 8, "Threshold", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 8, "Status", "1", 1, "C", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, r := range ws.Resources {
			pdf.CellFormat(80, 8, text(r.Name), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 8, text(fmt.Sprintf("%g %s", r.Quantity, r.Unit)), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 8, fmt.Sprintf("%g", r.Threshold), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 8, string(models.DeriveResourceStatus(r.Quantity, r.Threshold)), "1", 1, "C", false, 0, "")
		}
	}

	// --- Footer ---
	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(190, 6, "Generated by SiteGuard on "+time.Now().Format("2006-01-02 15:04:05"))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render daily report pdf: %w", err)
	}
	return nil
}

// DailyReportFilename is the download name of a workspace's report. The date
// comes from the model, so it is sanitised like the name but keeps its dashes.
func DailyReportFilename(ws models.Workspace, date string) string {
	date = strings.Map(func(r rune) rune {
		if r == '-' {
			return r
		}
		return filenameRune(r)
	}, date)
	return fmt.Sprintf("daily_report_%s_%s.pdf", SafeFilename(ws.Name), date)
}

// SafeFilename replaces everything but ASCII letters and digits with '_'.
func SafeFilename(name string) string {
	return strings.Map(filenameRune, name)
}

func filenameRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	default:
		return '_'
	}
}
