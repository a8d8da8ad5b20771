package schematic

import (
	"fmt"
	"strings"

	"process-monitor/internal/monitor/models"
)

// ============================================================
// Data collection sheet
// ============================================================

const sheetStyles = `<style>
body { font-family: Arial, sans-serif; font-size: 11pt; }
h1 { font-size: 18pt; }
h2 { font-size: 14pt; border-bottom: 1px solid #94a3b8; margin-top: 24px; }
h3 { font-size: 12pt; margin-bottom: 4px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 12px; }
th, td { border: 1px solid #cbd5e1; padding: 4px 6px; text-align: left; }
th { background: #f1f5f9; }
.measured { width: 30%; }
.notes { height: 80px; }
</style>`

const blankLine = "________________"

// CollectionSheet собирает HTML-лист для ручного сбора замеров по базовому проекту.
func CollectionSheet(baseline models.ProcessData) (string, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Process Data Collection Sheet</title>\n")
	b.WriteString(sheetStyles)
	b.WriteString("\n</head>\n<body>\n<h1>Process Data Collection Sheet</h1>\n")

	ci := baseline.CustomerInfo
	b.WriteString("<table>\n")
	writeHeaderRow(&b, "Customer", ci.Name.Value, "Data Collection Date")
	writeHeaderRow(&b, "Location / Site", ci.Location.Value, "Time of Day")
	writeHeaderRow(&b, "Contact Person", ci.ContactPerson.Value, "Technician")
	b.WriteString("</table>\n")

	b.WriteString("<h2>General Process Parameters</h2>\n")
	openTable(&b)
	writeRow(&b, "Conveyor Speed", "ft/min", baseline.ConveyorSpeed.Value)
	writeRow(&b, "Product Size", "", string(baseline.ProductSize))
	writeRow(&b, "Outside Temperature", "°F", "")
	writeRow(&b, "Outside Rel. Humidity", "%", "")
	closeTable(&b)

	for i := range baseline.Zones {
		z := &baseline.Zones[i]
		fmt.Fprintf(&b, "<h2>Process Stage: %s (%s)</h2>\n", escape(z.Name), escape(string(z.Data.Design)))
		openTable(&b)
		for _, f := range models.ZoneFields() {
			if f.Text {
				continue
			}
			p, err := z.Data.Param(f.Path)
			if err != nil {
				return "", fmt.Errorf("zone %q: %w", z.Name, err)
			}
			if p != nil {
				writeRow(&b, f.Label, f.Unit, p.Value)
			}
		}
		closeTable(&b)

		for j := range z.SubSystems {
			ss := &z.SubSystems[j]
			fmt.Fprintf(&b, "<h3>%s</h3>\n", escape(ss.Name))
			openTable(&b)
			for _, f := range models.SubSystemFields(ss.Type) {
				p, err := ss.Param(f.Path)
				if err != nil {
					return "", fmt.Errorf("sub-system %q: %w", ss.Name, err)
				}
				if p != nil {
					writeRow(&b, f.Label, f.Unit, p.Value)
				}
			}
			closeTable(&b)
		}

		b.WriteString("<h3>Notes</h3>\n<table><tr><td class=\"notes\"></td></tr></table>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func writeHeaderRow(b *strings.Builder, label, value, blankLabel string) {
	if value == "" {
		value = blankLine
	}
	fmt.Fprintf(b, "<tr><td><strong>%s:</strong></td><td>%s</td><td><strong>%s:</strong></td><td>%s</td></tr>\n",
		escape(label), escape(value), escape(blankLabel), blankLine)
}

func openTable(b *strings.Builder) {
	b.WriteString("<table>\n<thead><tr><th>Parameter</th><th>Baseline Value</th><th class=\"measured\">Measured Value</th></tr></thead>\n<tbody>\n")
}

func closeTable(b *strings.Builder) {
	b.WriteString("</tbody>\n</table>\n")
}

func writeRow(b *strings.Builder, label, unit, value string) {
	if unit != "" {
		label += " (" + unit + ")"
	}
	if value == "" {
		value = notAvailable
	}
	fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td></td></tr>\n", escape(label), escape(value))
}
