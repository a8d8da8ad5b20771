package deviation

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"process-monitor/internal/monitor/models"
)

func current(c, b string) Input {
	return Input{Current: c, Baseline: b, Mode: ModeCurrent}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		tier Tier
		text string
	}{
		{"within five percent", current("104", "100"), TierInCompliance, "+4.0% vs baseline"},
		{"exactly five percent", current("105", "100"), TierInCompliance, "+5.0% vs baseline"},
		{"warning", current("107", "100"), TierWarning, "+7.0% vs baseline"},
		{"exactly ten percent", current("110", "100"), TierWarning, "+10.0% vs baseline"},
		{"critical high", current("112.5", "100"), TierCritical, "+12.5% vs baseline"},
		{"critical low", current("80", "100"), TierCritical, "-20.0% vs baseline"},
		{"negative warning", current("93", "100"), TierWarning, "-7.0% vs baseline"},
		{"no change", current("100", "100"), TierInCompliance, "0.0% vs baseline"},
		{"zero baseline zero current", current("0", "0"), TierInCompliance, ""},
		{"zero baseline non zero", current("3", "0"), TierWarning, "Deviation from zero baseline"},
		{"blank current", current("", "100"), TierNone, ""},
		{"blank baseline", current("100", ""), TierNone, ""},
		{"non numeric", current("n/a", "100"), TierNone, ""},
		{"baseline mode", Input{Current: "150", Baseline: "100", Mode: ModeBaseline}, TierNone, ""},
		{"read only", Input{Current: "150", Baseline: "100", Mode: ModeCurrent, ReadOnly: true}, TierNone, ""},
		{"invalid flag", Input{Current: "150", Baseline: "100", Mode: ModeCurrent, Invalid: true}, TierNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.text, got.Text)
		})
	}
}

func TestClassifyMatchesThresholds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		b := float64(rng.Intn(2000)-1000) + 0.5
		c := float64(rng.Intn(4000) - 2000)

		got := Classify(current(strconv.FormatFloat(c, 'f', -1, 64), strconv.FormatFloat(b, 'f', -1, 64)))
		require.NotNil(t, got.Percent)

		dev := (c - b) / b * 100
		abs := dev
		if abs < 0 {
			abs = -abs
		}
		want := TierInCompliance
		switch {
		case abs > 10:
			want = TierCritical
		case abs > 5:
			want = TierWarning
		}
		assert.Equal(t, want, got.Tier, "c=%v b=%v", c, b)
		assert.InDelta(t, dev, *got.Percent, 1e-9)
	}
}

func TestCoolerCoilInverted(t *testing.T) {
	coil := models.ChilledWaterCoil{
		TempIn:  models.Parameter{Value: "45"},
		TempOut: models.Parameter{Value: "55"},
	}
	assert.True(t, CoolerCoilInverted(coil))

	coil.TempOut.Value = "40"
	assert.False(t, CoolerCoilInverted(coil))

	coil.TempOut.Value = ""
	assert.False(t, CoolerCoilInverted(coil))
}
