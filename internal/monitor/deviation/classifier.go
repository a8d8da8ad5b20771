package deviation

import (
	"math"

	"process-monitor/internal/monitor/models"
)

// ============================================================
// Tiers & modes
// ============================================================

type Tier string

const (
	TierNone         Tier = "none"
	TierInCompliance Tier = "in-compliance"
	TierWarning      Tier = "warning"
	TierCritical     Tier = "critical"
)

// Mode - какой снимок редактируется.
type Mode string

const (
	ModeBaseline Mode = "baseline"
	ModeCurrent  Mode = "current"
)

func (m Mode) Valid() bool {
	return m == ModeBaseline || m == ModeCurrent
}

const (
	warningThreshold  = 5.0
	criticalThreshold = 10.0

	ZeroBaselineText = "Deviation from zero baseline"
)

// Input - значение замера и его базовый аналог.
type Input struct {
	Current  string
	Baseline string
	Mode     Mode
	ReadOnly bool
	// Invalid - внешний флаг ошибки поля (например, перевёрнутый ΔT охладителя).
	Invalid bool
}

type Result struct {
	Tier    Tier     `json:"tier" yaml:"tier"`
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	Percent *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// ============================================================
// Classifier
// ============================================================

// Classify относит значение замера к уровню соответствия базе.
func Classify(in Input) Result {
	none := Result{Tier: TierNone}
	if in.Mode != ModeCurrent || in.ReadOnly || in.Invalid || in.Current == "" || in.Baseline == "" {
		return none
	}

	current, okC := models.ParseNumber(in.Current)
	baseline, okB := models.ParseNumber(in.Baseline)
	if !okC || !okB {
		return none
	}

	if baseline == 0 {
		if current == 0 {
			return Result{Tier: TierInCompliance}
		}
		return Result{Tier: TierWarning, Text: ZeroBaselineText}
	}

	dev := (current - baseline) / baseline * 100
	return Result{Tier: TierFor(dev), Text: FormatDeviation(dev), Percent: &dev}
}

// TierFor возвращает уровень для отклонения в процентах.
func TierFor(deviationPercent float64) Tier {
	abs := math.Abs(deviationPercent)
	switch {
	case abs > criticalThreshold:
		return TierCritical
	case abs > warningThreshold:
		return TierWarning
	}
	return TierInCompliance
}

// FormatDeviation форматирует отклонение: "+12.5% vs baseline".
func FormatDeviation(deviationPercent float64) string {
	sign := ""
	if deviationPercent > 0 {
		sign = "+"
	}
	return sign + models.FormatFixed(deviationPercent, 1) + "% vs baseline"
}

// CoolerCoilInverted сообщает, что вода на выходе змеевика теплее, чем на входе.
func CoolerCoilInverted(coil models.ChilledWaterCoil) bool {
	in, okIn := coil.TempIn.Float()
	out, okOut := coil.TempOut.Float()
	return okIn && okOut && out > in
}
