package pdf

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"kalyana/internal/models"
)

// Generator renders documents; handy to fake in handler tests.
type Generator interface {
	ImpactReport(w io.Writer, a *models.Analytics, generatedAt time.Time) error
}

// ReportGenerator draws reports with gofpdf. A TTF font is used when FontPath
// points to a readable file, otherwise the built-in Helvetica.
type ReportGenerator struct {
	FontPath string
	fontName string
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	g := &ReportGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			g.fontName = "DejaVu"
		}
	}
	return g
}

func (g *ReportGenerator) ImpactReport(w io.Writer, a *models.Analytics, generatedAt time.Time) error {
	if a == nil {
		return fmt.Errorf("impact report: no analytics")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Kalyana Connection impact report", false)
	pdf.SetAuthor("Kalyana Connection", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	// ===== title
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "Impact Report", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, "Generated "+generatedAt.UTC().Format("02 Jan 2006 15:04 UTC"), "", 1, "C", false, 0, "")
	g.hr(pdf)

	// ===== headline numbers
	g.sectionTitle(pdf, "Overview")
	var totalKg float64
	for _, kg := range a.MonthlySurplusKg {
		totalKg += kg
	}
	var completed int
	for _, n := range a.MonthlyCompletedAllocations {
		completed += n
	}
	g.kvLine(pdf, "Surplus listed", fmt.Sprintf("%.1f kg", totalKg))
	g.kvLine(pdf, "Pickups completed", fmt.Sprintf("%d", completed))
	g.kvLine(pdf, "Allocation efficiency", fmt.Sprintf("%.1f%%", a.AllocationEfficiency))
	g.kvLine(pdf, "Average trust score", fmt.Sprintf("%.2f / 5", a.AvgTrustScore))
	pdf.Ln(2)
	g.hr(pdf)

	// ===== monthly table
	g.sectionTitle(pdf, "Monthly trend")
	g.tableRow(pdf, true, "Month", "Surplus (kg)", "Completed pickups")
	for i, label := range a.MonthLabels {
		var kg float64
		var done int
		if i < len(a.MonthlySurplusKg) {
			kg = a.MonthlySurplusKg[i]
		}
		if i < len(a.MonthlyCompletedAllocations) {
			done = a.MonthlyCompletedAllocations[i]
		}
		g.tableRow(pdf, false, label, fmt.Sprintf("%.1f", kg), fmt.Sprintf("%d", done))
	}
	pdf.Ln(2)
	g.hr(pdf)

	// ===== leaders
	g.sectionTitle(pdf, "Top providers (kg donated)")
	g.rankedList(pdf, a.TopProviders, "%.1f kg")
	g.sectionTitle(pdf, "Top NGOs (pickups completed)")
	g.rankedList(pdf, a.TopNGOs, "%.0f")
	g.hr(pdf)

	// ===== complaints
	g.sectionTitle(pdf, "Complaints by status")
	if len(a.ComplaintStatus) == 0 {
		g.addLines(pdf, []string{"No complaints recorded."})
	}
	statuses := make([]string, 0, len(a.ComplaintStatus))
	for s := range a.ComplaintStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		g.kvLine(pdf, titleCase(s), fmt.Sprintf("%d", a.ComplaintStatus[s]))
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	return pdf.Output(w)
}

// ===== helpers =====

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(55, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) tableRow(pdf *gofpdf.Fpdf, header bool, cols ...string) {
	style := ""
	if header {
		style = "B"
		pdf.SetFillColor(230, 230, 230)
	}
	pdf.SetFont(g.fontName, style, 10)
	widths := []float64{50, 55, 65}
	for i, col := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i%len(widths)], 7, col, "1", ln, "L", header, 0, "")
	}
}

func (g *ReportGenerator) rankedList(pdf *gofpdf.Fpdf, items []models.NamedAmount, valueFormat string) {
	if len(items) == 0 {
		g.addLines(pdf, []string{"No data yet."})
		return
	}
	for i, it := range items {
		g.kvLine(pdf, fmt.Sprintf("%d. %s", i+1, it.Name), fmt.Sprintf(valueFormat, it.Value))
	}
	pdf.Ln(1)
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ReportGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.fontName == "Helvetica" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}

func (g *ReportGenerator) addLines(pdf *gofpdf.Fpdf, lines []string) {
	pdf.SetFont(g.fontName, "", 11)
	for _, line := range lines {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
}

// titleCase turns "under_review" into "Under Review".
func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
