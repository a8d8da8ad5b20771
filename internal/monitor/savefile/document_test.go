package savefile

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"process-monitor/internal/monitor/models"
)

var now = time.Date(2024, 5, 20, 9, 15, 0, 0, time.UTC)

func sampleDocument(t *testing.T) Document {
	t.Helper()

	base := models.BlankProcessData(now)
	base.CustomerInfo.Name.Value = "Acme Auto"
	base.ConveyorSpeed.Value = "12"
	oven := models.NewZone("z-oven")
	oven.Name = "Oven 1"
	oven.Data.Temperature.Value = "350"
	heater, err := models.NewSubSystem("s-heater", models.TypeHeaterBox, "Burner")
	require.NoError(t, err)
	heater.HeaterBox.BurnerRating.Value = "2.5"
	oven.SubSystems = []models.SubSystem{heater}
	booth := models.NewZone("z-booth")
	booth.Name = "Booth"
	booth.Data.Design = models.DesignBooth
	base.Zones = []models.Zone{oven, booth}

	reading := base.Clone()
	reading.FindZone("z-oven").Data.Temperature.Value = "362"
	reading.TimeOfDay.Value = "08:30"

	return Document{
		Baseline:         base,
		Historical:       []models.ProcessData{reading},
		ChangeRequests:   []models.ChangeRequest{models.NewChangeRequest("cr-1")},
		ProblemStatement: "Paint defects on the hood",
	}
}

func TestRoundTrip(t *testing.T) {
	doc := sampleDocument(t)

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"baseline\": {"))

	got, rec, err := Decode(data, now)
	require.NoError(t, err)
	assert.True(t, rec.Empty(), rec.Changes)

	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsMissingArrays(t *testing.T) {
	for name, input := range map[string]string{
		"no historical":       `{"baseline": {"zones": []}}`,
		"no baseline":         `{"historical": []}`,
		"historical not list": `{"baseline": {}, "historical": {}}`,
		"baseline not object": `{"baseline": [], "historical": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode([]byte(input), now)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFormat)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.NotEmpty(t, fe.Details)
			assert.Contains(t, err.Error(), FormatErrorText)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, _, err := Decode([]byte(`{"baseline": `), now)
	assert.ErrorIs(t, err, ErrMalformed)

	_, _, err = Decode([]byte(`{"baseline": {"zones": [{"id": "z", "subSystems": [{"id": "s", "type": "Boiler", "data": {}}]}]}, "historical": []}`), now)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeDefaults(t *testing.T) {
	doc, _, err := Decode([]byte(`{"baseline": {"zones": []}, "historical": []}`), now)
	require.NoError(t, err)

	assert.Empty(t, doc.ProblemStatement)
	assert.NotNil(t, doc.ChangeRequests)
	assert.Empty(t, doc.ChangeRequests)
	require.Len(t, doc.Historical, 1)
	assert.Equal(t, "2024-05-20", doc.Historical[0].CollectionDate.Value)
}

func TestDecodeNormalizesChangeRequests(t *testing.T) {
	input := `{"baseline": {"zones": []}, "historical": [],
		"changeRequests": [{"id": "1", "title": "x", "riskLevel": "Extreme", "status": "Shipped"}]}`

	doc, _, err := Decode([]byte(input), now)
	require.NoError(t, err)
	require.Len(t, doc.ChangeRequests, 1)
	assert.Equal(t, models.RiskLow, doc.ChangeRequests[0].RiskLevel)
	assert.Equal(t, models.ChangeDraft, doc.ChangeRequests[0].Status)
}

func TestDecodeReconcilesDrift(t *testing.T) {
	doc := sampleDocument(t)
	reading := doc.Historical[0]

	stale := models.NewZone("z-stale")
	oven := reading.FindZone("z-oven").Clone()
	oven.Name = "Old Oven"
	oven.SubSystems = append(oven.SubSystems, models.SubSystem{ID: "s-ghost", Name: "Ghost", Type: models.TypeCooler, Cooler: &models.CoolerData{}})
	reading.Zones = []models.Zone{stale, oven}
	doc.Historical[0] = reading

	data, err := Encode(doc)
	require.NoError(t, err)

	got, rec, err := Decode(data, now)
	require.NoError(t, err)

	zones := got.Historical[0].Zones
	require.Len(t, zones, 2)
	assert.Equal(t, "z-oven", zones[0].ID)
	assert.Equal(t, "Oven 1", zones[0].Name)
	assert.Equal(t, "362", zones[0].Data.Temperature.Value)
	require.Len(t, zones[0].SubSystems, 1)
	assert.Equal(t, "s-heater", zones[0].SubSystems[0].ID)
	assert.Equal(t, "z-booth", zones[1].ID)

	assert.ElementsMatch(t, []Change{
		{Reading: 0, ZoneID: "z-stale", Action: ActionDropped},
		{Reading: 0, ZoneID: "z-oven", Action: ActionRenamed},
		{Reading: 0, ZoneID: "z-oven", SubSystemID: "s-ghost", Action: ActionDropped},
		{Reading: 0, ZoneID: "z-booth", Action: ActionInserted},
	}, rec.Changes)
}

func TestReconcileOrderAndSubSystemType(t *testing.T) {
	doc := sampleDocument(t)
	reading := doc.Historical[0].Clone()
	reading.Zones[0], reading.Zones[1] = reading.Zones[1], reading.Zones[0]
	ash, err := models.NewSubSystem("s-heater", models.TypeAirSupplyHouse, "Burner")
	require.NoError(t, err)
	reading.FindZone("z-oven").SubSystems = []models.SubSystem{ash}

	out, rec := Reconcile(doc.Baseline, []models.ProcessData{reading})

	require.Len(t, out, 1)
	assert.Equal(t, []string{"z-oven", "z-booth"}, zoneIDs(out[0].Zones))
	assert.Equal(t, models.TypeHeaterBox, out[0].Zones[0].SubSystems[0].Type)
	assert.Contains(t, rec.Changes, Change{Reading: 0, Action: ActionReordered})
	assert.Contains(t, rec.Changes, Change{Reading: 0, ZoneID: "z-oven", SubSystemID: "s-heater", Action: ActionReplaced})
	assert.Equal(t, "z-booth", reading.Zones[0].ID, "input must stay untouched")
}
