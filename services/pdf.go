package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

const utf8Family = "planfont"

// ErrFontRequired is returned when a plan holds text the core PDF fonts
// cannot draw and no TrueType font is configured.
var ErrFontRequired = errors.New("plan contains characters outside cp1252; set pdf.font_path to a TrueType font with CJK coverage")

// PDFRenderer turns a finished plan into a printable A4 document.
type PDFRenderer struct {
	fontPath string
	now      func() time.Time
}

// NewPDFRenderer uses the TrueType font at fontPath for CJK text. A missing
// or empty path selects Helvetica, which cannot draw Chinese glyphs; Render
// then refuses plans containing them with ErrFontRequired.
func NewPDFRenderer(fontPath string, log *logrus.Logger) *PDFRenderer {
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			log.Warnf("PDF font %s unavailable, using Helvetica: %v", fontPath, err)
			fontPath = ""
		}
	}
	return &PDFRenderer{fontPath: fontPath, now: time.Now}
}

// Render returns the PDF bytes for plan. Nothing touches the filesystem.
func (r *PDFRenderer) Render(plan *TravelPlanResponse) ([]byte, error) {
	if r.fontPath == "" && !coreFontSafe(planText(plan)...) {
		return nil, ErrFontRequired
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)

	family := "Helvetica"
	tr := func(s string) string { return s }
	if r.fontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", r.fontPath)
		pdf.AddUTF8Font(utf8Family, "B", r.fontPath)
		pdf.AddUTF8Font(utf8Family, "I", r.fontPath)
		family = utf8Family
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
		pdf.SetFont(family, "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8,
			tr(fmt.Sprintf("Travel Planner · plan %s · page %d", plan.PlanID, pdf.PageNo())),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(family, "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(170, 10, tr(plan.Destination), "", 0, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, tr("Generated "+r.now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont(family, "B", 11)
		pdf.CellFormat(170, 8, tr("  "+title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont(family, "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(45, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont(family, "B", 10)
		pdf.CellFormat(125, 7, tr(value), "", 1, "L", false, 0, "")
	}

	// ── Weather ───────────────────────────────────────────────
	sectionHeader("Weather")
	for _, w := range plan.WeatherInfo {
		row(w.Date, fmt.Sprintf("%s %s / %s %s, %s",
			w.DayWeather, w.DayTemp, w.NightWeather, w.NightTemp, w.Wind))
	}
	pdf.Ln(4)

	// ── Attractions ───────────────────────────────────────────
	sectionHeader("Attractions")
	for _, a := range plan.Attractions {
		row(a.Name, a.Address)
		if a.Description != "" {
			pdf.SetFont(family, "", 9)
			pdf.SetTextColor(80, 80, 80)
			pdf.MultiCell(170, 5, tr(a.Description), "", "L", false)
		}
	}
	pdf.Ln(4)

	// ── Flights ───────────────────────────────────────────────
	if len(plan.FlightInfo) > 0 {
		sectionHeader("Flights")
		for _, f := range plan.FlightInfo {
			label := fmt.Sprintf("%s %s", f.FlightNumber, f.Price)
			value := fmt.Sprintf("%s - %s (%s) %s %s %s",
				f.DepartureTime, f.ArrivalTime, f.Duration, f.Airline, f.SeatClass, f.Transfer)
			if f.Discount != "" {
				value += " · " + f.Discount
			}
			row(label, value)
		}
		pdf.Ln(4)
	}

	// ── Itinerary ─────────────────────────────────────────────
	sectionHeader("Itinerary")
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(170, 5, tr(plainMarkdown(plan.Itinerary)), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

var markdownMarks = strings.NewReplacer("**", "", "__", "", "`", "")

// plainMarkdown drops emphasis markers and heading hashes so the model's
// Markdown reads cleanly as plain text.
func plainMarkdown(md string) string {
	lines := strings.Split(markdownMarks.Replace(md), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(l, "# ")
	}
	return strings.Join(lines, "\n")
}

// cp1252 characters above Latin-1.
const cp1252Extras = "€‚ƒ„…†‡ˆ‰Š‹ŒŽ‘’“”•–—˜™š›œžŸ"

// coreFontSafe reports whether every rune can be drawn with Helvetica's
// cp1252 encoding.
func coreFontSafe(texts ...string) bool {
	for _, s := range texts {
		for _, r := range s {
			if r <= 0xFF {
				continue
			}
			if !strings.ContainsRune(cp1252Extras, r) {
				return false
			}
		}
	}
	return true
}

func planText(plan *TravelPlanResponse) []string {
	texts := []string{plan.Destination, plan.Itinerary, plan.PlanID}
	for _, w := range plan.WeatherInfo {
		texts = append(texts, w.Date, w.DayTemp, w.NightTemp, w.DayWeather, w.NightWeather, w.Wind)
	}
	for _, a := range plan.Attractions {
		texts = append(texts, a.Name, a.Address, a.Description)
	}
	for _, f := range plan.FlightInfo {
		texts = append(texts, f.FlightNumber, f.Airline, f.DepartureTime, f.ArrivalTime,
			f.Duration, f.Price, f.SeatClass, f.Transfer, f.Discount)
	}
	return texts
}
