package schematic

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"process-monitor/internal/monitor/models"
)

var fixedNow = time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)

func sampleLine(t *testing.T) models.ProcessData {
	t.Helper()

	oven := models.NewZone("z1")
	oven.Name = "Oven <1>"
	oven.Data.Temperature.Value = "350"
	oven.Data.Supply.Airflow.Value = "2000"
	oven.Data.Infiltration.Volume.Value = "120"
	oven.Data.ZoneLength.Value = "100"
	heater, err := models.NewSubSystem("s1", models.TypeHeaterBox, "Burner A")
	require.NoError(t, err)
	heater.HeaterBox.BurnerRating.Value = "2.5"
	oven.SubSystems = append(oven.SubSystems, heater)

	cooler := models.NewZone("z2")
	cooler.Name = "Cooldown"
	cooler.Data.Design = models.DesignCooled
	coil, err := models.NewSubSystem("s2", models.TypeCooler, "Chiller")
	require.NoError(t, err)
	coil.Cooler.ChilledWaterCoil.TempIn.Value = "45"
	coil.Cooler.ChilledWaterCoil.TempOut.Value = "55.25"
	cooler.SubSystems = append(cooler.SubSystems, coil)

	flash := models.NewZone("z3")
	flash.Name = "Flash"
	flash.Data.Design = models.DesignAmbient
	ash, err := models.NewSubSystem("s3", models.TypeAirSupplyHouse, "ASH")
	require.NoError(t, err)
	flash.SubSystems = append(flash.SubSystems, ash)

	data := models.BlankProcessData(fixedNow)
	data.ConveyorSpeed.Value = "20"
	data.ProductSize = models.ProductSUV
	data.Zones = []models.Zone{oven, cooler, flash}
	return data
}

func TestRenderCards(t *testing.T) {
	svg, err := NewRenderer().Render(sampleLine(t), "Line & Co")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(svg, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "Line &amp; Co")
	assert.Contains(t, svg, "Oven &lt;1&gt;")

	assert.Contains(t, svg, "Temp: 350°F")
	assert.Contains(t, svg, "RH: N/A")
	assert.Contains(t, svg, "Supply Duct: 2000 CFM")
	assert.Contains(t, svg, "Exhaust Duct: N/A")
	assert.Contains(t, svg, "Infiltration: 120 CFM")
	assert.NotContains(t, svg, "Exfiltration:")
	assert.Contains(t, svg, "Process time: 5.00 min")

	assert.Contains(t, svg, "Burner: 2.5 MMBTU")
	assert.Contains(t, svg, "CW ΔT: 10.3°F")
	assert.Contains(t, svg, "Supply: N/A")
	assert.Contains(t, svg, "Conveyor Speed: 20 ft/min | Product Size: SUV")

	assert.Equal(t, 2, strings.Count(svg, `marker-end="url(#arrow)"`))
	assert.Contains(t, svg, heatedPalette.fill)
	assert.Contains(t, svg, cooledPalette.fill)
	assert.Contains(t, svg, slatePalette.fill)
	assert.Less(t, strings.Index(svg, "Oven"), strings.Index(svg, "Cooldown"))
}

func TestRenderCoilDeltaMissing(t *testing.T) {
	data := sampleLine(t)
	data.Zones[1].SubSystems[0].Cooler.ChilledWaterCoil.TempOut.Value = ""

	svg, err := NewRenderer().Render(data, "x")
	require.NoError(t, err)
	assert.Contains(t, svg, "CW ΔT: N/A")
}

func TestRenderEmpty(t *testing.T) {
	svg, err := NewRenderer().Render(models.BlankProcessData(fixedNow), "Empty")
	require.NoError(t, err)
	assert.Contains(t, svg, EmptyPlaceholder)
	assert.NotContains(t, svg, "<line")
	assert.Contains(t, svg, "Conveyor Speed: N/A | Product Size: N/A")
}

func TestRenderRejectsBrokenSubSystem(t *testing.T) {
	data := sampleLine(t)
	data.Zones[0].SubSystems[0].HeaterBox = nil

	_, err := NewRenderer().Render(data, "x")
	assert.ErrorIs(t, err, models.ErrPayloadMismatch)
}

func TestCollectionSheet(t *testing.T) {
	data := sampleLine(t)
	data.CustomerInfo.Name.Value = "Acme & Sons"
	data.Zones[1].SubSystems[0].Cooler.FanMotor = nil

	sheet, err := CollectionSheet(data)
	require.NoError(t, err)

	assert.Contains(t, sheet, "<h1>Process Data Collection Sheet</h1>")
	assert.Contains(t, sheet, "Acme &amp; Sons")
	assert.Contains(t, sheet, "<td><strong>Location / Site:</strong></td><td>"+blankLine+"</td>")
	assert.Contains(t, sheet, "<h2>Process Stage: Oven &lt;1&gt; (Heated)</h2>")
	assert.Contains(t, sheet, "<tr><td>Temperature (°F)</td><td>350</td><td></td></tr>")
	assert.Contains(t, sheet, "<tr><td>Relative Humidity (%)</td><td>N/A</td><td></td></tr>")
	assert.Contains(t, sheet, "<tr><td>Burner Rating (MM BTU/Hr)</td><td>2.5</td><td></td></tr>")
	assert.Contains(t, sheet, "Combustion Fan Frequency")
	assert.NotContains(t, sheet, "Fan Motor Frequency")
	assert.Contains(t, sheet, "CW Temp Out (°F)</td><td>55.25")
	assert.NotContains(t, sheet, "Stage Purpose")
	assert.Equal(t, 3, strings.Count(sheet, "<h3>Notes</h3>"))
}
