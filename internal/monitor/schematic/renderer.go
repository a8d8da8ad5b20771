package schematic

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"process-monitor/internal/monitor/derive"
	"process-monitor/internal/monitor/models"
)

// ============================================================
// Renderer
// ============================================================

const (
	margin      = 24.0
	titleHeight = 40.0
	cardWidth   = 240.0
	arrowWidth  = 60.0
	headerH     = 36.0
	lineH       = 20.0
	subCardH    = 44.0
	subCardGap  = 8.0
	footerH     = 36.0

	EmptyPlaceholder = "No process stages defined. Add a stage to the baseline design to begin."
	notAvailable     = "N/A"
)

type palette struct {
	fill, stroke, text string
}

var (
	heatedPalette = palette{fill: "#fef2f2", stroke: "#f87171", text: "#991b1b"}
	cooledPalette = palette{fill: "#eff6ff", stroke: "#60a5fa", text: "#1e40af"}
	slatePalette  = palette{fill: "#f8fafc", stroke: "#94a3b8", text: "#334155"}
)

func paletteFor(design models.ZoneDesign) palette {
	switch design {
	case models.DesignHeated:
		return heatedPalette
	case models.DesignCooled:
		return cooledPalette
	}
	return slatePalette
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

type card struct {
	zone  models.Zone
	lines []string
	subs  []subCard
}

type subCard struct {
	title, line string
}

// Render собирает SVG-схему линии: карточки зон слева направо, соединенные стрелками.
func (r *Renderer) Render(data models.ProcessData, title string) (string, error) {
	cards := make([]card, 0, len(data.Zones))
	for _, z := range data.Zones {
		c, err := r.buildCard(z, data.ConveyorSpeed)
		if err != nil {
			return "", err
		}
		cards = append(cards, c)
	}

	var body []string
	width := 2*margin + cardWidth
	height := 2*margin + titleHeight + footerH + 80

	if len(cards) == 0 {
		width = 2*margin + 3*cardWidth
		body = append(body, fmt.Sprintf(`<text x="%s" y="%s" text-anchor="middle" font-size="14" fill="#64748b">%s</text>`,
			formatFloat(width/2), formatFloat(margin+titleHeight+40), escape(EmptyPlaceholder)))
	} else {
		maxH := 0.0
		for _, c := range cards {
			if h := cardHeight(c); h > maxH {
				maxH = h
			}
		}
		n := float64(len(cards))
		width = 2*margin + n*cardWidth + (n-1)*arrowWidth
		height = 2*margin + titleHeight + maxH + footerH

		top := margin + titleHeight
		for i, c := range cards {
			x := margin + float64(i)*(cardWidth+arrowWidth)
			body = append(body, r.renderCard(c, x, top, maxH)...)
			if i < len(cards)-1 {
				body = append(body, renderArrow(x+cardWidth, top+maxH/2))
			}
		}
	}

	body = append(body, fmt.Sprintf(`<text x="%s" y="%s" font-size="12" fill="#475569">%s</text>`,
		formatFloat(margin), formatFloat(height-margin), escape(footer(data))))

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="sans-serif">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")
	builder.WriteString(`  <defs><marker id="arrow" markerWidth="10" markerHeight="10" refX="9" refY="5" orient="auto"><path d="M0,0 L10,5 L0,10 z" fill="#64748b"/></marker></defs>` + "\n")
	builder.WriteString(fmt.Sprintf(`  <text x="%s" y="%s" font-size="18" font-weight="bold" fill="#0f172a">%s</text>`,
		formatFloat(margin), formatFloat(margin+20), escape(title)))
	builder.WriteString("\n")

	for _, elem := range body {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Cards
// ============================================================

func (r *Renderer) buildCard(z models.Zone, conveyorSpeed models.Parameter) (card, error) {
	d := z.Data
	lines := []string{
		"Temp: " + withUnit(d.Temperature, "°F"),
		"RH: " + withUnit(d.RelativeHumidity, "%"),
		"Supply Duct: " + withUnit(d.Supply.Airflow, " CFM"),
		"Exhaust Duct: " + withUnit(d.Exhaust.Airflow, " CFM"),
	}
	if d.Infiltration != nil && !d.Infiltration.Volume.IsBlank() {
		lines = append(lines, "Infiltration: "+d.Infiltration.Volume.Value+" CFM")
	}
	if d.Exfiltration != nil && !d.Exfiltration.Volume.IsBlank() {
		lines = append(lines, "Exfiltration: "+d.Exfiltration.Volume.Value+" CFM")
	}
	if pt := derive.ProcessTime(d.ZoneLength, conveyorSpeed); pt != derive.NoProcessTime {
		lines = append(lines, "Process time: "+pt+" min")
	}

	subs := make([]subCard, 0, len(z.SubSystems))
	for _, ss := range z.SubSystems {
		if err := ss.Validate(); err != nil {
			return card{}, fmt.Errorf("zone %q sub-system %q: %w", z.Name, ss.Name, err)
		}
		subs = append(subs, subCard{title: ss.Name, line: subSystemLine(ss)})
	}
	return card{zone: z, lines: lines, subs: subs}, nil
}

func subSystemLine(ss models.SubSystem) string {
	switch ss.Type {
	case models.TypeHeaterBox:
		return "Burner: " + withUnit(ss.HeaterBox.BurnerRating, " MMBTU")
	case models.TypeCooler:
		return "CW ΔT: " + coilDelta(ss.Cooler.ChilledWaterCoil)
	case models.TypeAirSupplyHouse:
		return "Supply: " + withUnit(ss.AirSupplyHouse.AirSystem.Airflow, " CFM")
	}
	return ""
}

// coilDelta - перепад температуры воды: выход минус вход.
func coilDelta(coil models.ChilledWaterCoil) string {
	in, okIn := coil.TempIn.Float()
	out, okOut := coil.TempOut.Float()
	if !okIn || !okOut {
		return notAvailable
	}
	return models.FormatFixed(out-in, 1) + "°F"
}

func cardHeight(c card) float64 {
	h := headerH + float64(len(c.lines))*lineH + 12
	h += float64(len(c.subs)) * (subCardH + subCardGap)
	return h
}

func (r *Renderer) renderCard(c card, x, y, h float64) []string {
	p := paletteFor(c.zone.Data.Design)
	out := []string{
		fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" rx="8" fill="%s" stroke="%s" stroke-width="2"/>`,
			formatFloat(x), formatFloat(y), formatFloat(cardWidth), formatFloat(h), p.fill, p.stroke),
		fmt.Sprintf(`<text x="%s" y="%s" text-anchor="middle" font-size="14" font-weight="bold" fill="%s">%s</text>`,
			formatFloat(x+cardWidth/2), formatFloat(y+24), p.text, escape(c.zone.Name)),
	}

	lineY := y + headerH + 14
	for _, line := range c.lines {
		out = append(out, fmt.Sprintf(`<text x="%s" y="%s" font-size="12" fill="#1e293b">%s</text>`,
			formatFloat(x+12), formatFloat(lineY), escape(line)))
		lineY += lineH
	}

	subY := y + headerH + float64(len(c.lines))*lineH + 12
	for _, s := range c.subs {
		out = append(out,
			fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" rx="4" fill="#ffffff" stroke="%s"/>`,
				formatFloat(x+10), formatFloat(subY), formatFloat(cardWidth-20), formatFloat(subCardH), p.stroke),
			fmt.Sprintf(`<text x="%s" y="%s" font-size="12" font-weight="bold" fill="%s">%s</text>`,
				formatFloat(x+18), formatFloat(subY+18), p.text, escape(s.title)),
			fmt.Sprintf(`<text x="%s" y="%s" font-size="11" fill="#334155">%s</text>`,
				formatFloat(x+18), formatFloat(subY+34), escape(s.line)),
		)
		subY += subCardH + subCardGap
	}
	return out
}

func renderArrow(x, y float64) string {
	return fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#64748b" stroke-width="2" marker-end="url(#arrow)"/>`,
		formatFloat(x+6), formatFloat(y), formatFloat(x+arrowWidth-6), formatFloat(y))
}

func footer(data models.ProcessData) string {
	size := string(data.ProductSize)
	if size == "" {
		size = notAvailable
	}
	return "Conveyor Speed: " + withUnit(data.ConveyorSpeed, " ft/min") + " | Product Size: " + size
}

// ============================================================
// Helpers
// ============================================================

func withUnit(p models.Parameter, unit string) string {
	if p.IsBlank() {
		return notAvailable
	}
	return p.Value + unit
}

func escape(s string) string {
	return html.EscapeString(s)
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
