// internal/pkg/pdf/generator.go
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"lexinsight-service/internal/domain/report"
	"lexinsight-service/internal/domain/review"
)

// Color scheme - professional dark blue theme
var (
	colorPrimary    = [3]int{30, 58, 95}    // Dark navy
	colorAccent     = [3]int{46, 204, 113}  // Green
	colorDanger     = [3]int{231, 76, 60}   // Red
	colorTextDark   = [3]int{44, 62, 80}    // Dark text
	colorTextMuted  = [3]int{127, 140, 141} // Muted text
	colorBackground = [3]int{248, 249, 250} // Light gray bg
	colorGridLine   = [3]int{220, 220, 220} // Chart grid
)

// ReportData carries everything the generator needs to render a report.
type ReportData struct {
	FirmName    string
	Reference   string
	Analysis    *report.Analysis
	IsPaidUser  bool
	GeneratedAt time.Time
}

// Generator handles PDF report generation.
type Generator struct{}

// NewGenerator creates a new PDF generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a client feedback report to PDF bytes.
func (g *Generator) Generate(data *ReportData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)

	g.writeCoverPage(pdf, data)

	pdf.AddPage()
	g.writeSummarySection(pdf, data)
	g.writeThemesSection(pdf, data)

	if len(data.Analysis.TopPraise) > 0 {
		pdf.AddPage()
		g.writeHighlightsSection(pdf, "What Clients Praise", data.Analysis.TopPraise, colorAccent)
	}
	if len(data.Analysis.TopComplaints) > 0 {
		if pdf.GetY() > 180 || len(data.Analysis.TopPraise) == 0 {
			pdf.AddPage()
		}
		g.writeHighlightsSection(pdf, "Areas of Concern", data.Analysis.TopComplaints, colorDanger)
	}

	if !data.IsPaidUser {
		g.writeUpgradeNotice(pdf, data)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}

	return buf.Bytes(), nil
}

// writeCoverPage creates a professional cover page.
func (g *Generator) writeCoverPage(pdf *fpdf.Fpdf, data *ReportData) {
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()

	// Top accent bar
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(50)
	pdf.SetFont("Arial", "B", 32)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 15, "LEXINSIGHT", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 8, "Client Feedback Analytics", "", 1, "C", false, 0, "")

	pdf.SetY(100)
	pdf.SetFont("Arial", "B", 28)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 12, "Client Feedback Report", "", 1, "C", false, 0, "")

	// Firm info box
	pdf.SetY(130)
	boxX := 40.0
	boxWidth := pageWidth - 80
	boxHeight := 40.0

	pdf.SetFillColor(colorBackground[0], colorBackground[1], colorBackground[2])
	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	pdf.RoundedRect(boxX, pdf.GetY(), boxWidth, boxHeight, 3, "1234", "FD")

	pdf.SetY(pdf.GetY() + 8)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 7, "PREPARED FOR", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 10, data.FirmName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 7, fmt.Sprintf("Report %s", data.Reference), "", 1, "C", false, 0, "")

	pdf.SetY(pageHeight - 50)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", data.GeneratedAt.Format("January 2, 2006 at 15:04 MST")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Reviews Analyzed: %d", data.Analysis.TotalReviews), "", 1, "C", false, 0, "")

	// Bottom accent bar
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, pageHeight-8, pageWidth, 8, "F")
}

func (g *Generator) writeSummarySection(pdf *fpdf.Fpdf, data *ReportData) {
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 10, "Executive Summary", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cardX := 20.0
	cardWidth := pageWidth - 40
	cardHeight := 30.0

	cardColor := colorAccent
	verdict := "Clients rate this firm highly"
	if data.Analysis.AverageRating < 3.0 {
		cardColor = colorDanger
		verdict = "Client satisfaction needs attention"
	}

	pdf.SetFillColor(cardColor[0], cardColor[1], cardColor[2])
	pdf.RoundedRect(cardX, pdf.GetY(), cardWidth, cardHeight, 3, "1234", "F")

	pdf.SetXY(cardX, pdf.GetY()+6)
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(cardWidth, 11, fmt.Sprintf("%.2f / 5.00", data.Analysis.AverageRating), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(cardWidth, 8, verdict, "", 1, "C", false, 0, "")

	pdf.SetY(pdf.GetY() + 12)

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	summary := fmt.Sprintf("This report covers %d client reviews with an average rating of %.2f out of 5.",
		data.Analysis.TotalReviews, data.Analysis.AverageRating)
	if data.Analysis.Limited {
		summary += " Analysis was limited to the 50 most recent reviews on the free trial."
	}
	pdf.MultiCell(0, 6, summary, "", "L", false)
	pdf.Ln(4)
}

func (g *Generator) writeThemesSection(pdf *fpdf.Fpdf, data *ReportData) {
	if len(data.Analysis.Themes) == 0 {
		return
	}

	pageWidth, _ := pdf.GetPageSize()
	barMax := pageWidth - 110

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 10, "Key Themes", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, theme := range data.Analysis.Themes {
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.CellFormat(45, 7, theme.Name, "", 0, "L", false, 0, "")

		barWidth := barMax * theme.Percentage / 100.0
		if barWidth < 2 {
			barWidth = 2
		}
		pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
		pdf.Rect(pdf.GetX(), pdf.GetY()+1.5, barWidth, 4, "F")

		pdf.SetX(pdf.GetX() + barMax + 3)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 7, fmt.Sprintf("%d mentions (%.0f%%)", theme.Mentions, theme.Percentage), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
}

func (g *Generator) writeHighlightsSection(pdf *fpdf.Fpdf, title string, highlights []review.Review, accent [3]int) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(accent[0], accent[1], accent[2])
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, rev := range highlights {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		header := fmt.Sprintf("%s  (%d/5)", rev.Date, rev.Rating)
		pdf.CellFormat(0, 6, header, "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		text := rev.ReviewText
		if len(text) > 400 {
			text = text[:397] + "..."
		}
		pdf.MultiCell(0, 5, text, "", "L", false)
		pdf.Ln(3)
	}

	pdf.Ln(2)
}

func (g *Generator) writeUpgradeNotice(pdf *fpdf.Fpdf, data *ReportData) {
	pageWidth, _ := pdf.GetPageSize()

	if pdf.GetY() > 230 {
		pdf.AddPage()
	}

	cardX := 20.0
	cardWidth := pageWidth - 40

	pdf.SetFillColor(colorBackground[0], colorBackground[1], colorBackground[2])
	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	pdf.RoundedRect(cardX, pdf.GetY(), cardWidth, 26, 3, "1234", "FD")

	pdf.SetXY(cardX, pdf.GetY()+5)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(cardWidth, 7, "Upgrade for Full Insight", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(cardWidth, 6, "Subscribe to analyze your complete review history with no caps.", "", 1, "C", false, 0, "")
}
