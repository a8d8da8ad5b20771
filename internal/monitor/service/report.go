package service

import (
	"sort"
	"strings"
	"time"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/monitor/derive"
	"process-monitor/internal/monitor/deviation"
	"process-monitor/internal/monitor/models"
)

// ============================================================
// Status report
// ============================================================

// FieldStatus - классификация одного поля замера относительно базы.
type FieldStatus struct {
	ZoneID        string `json:"zoneId,omitempty" yaml:"zoneId,omitempty"`
	Zone          string `json:"zone,omitempty" yaml:"zone,omitempty"`
	SubSystemID   string `json:"subSystemId,omitempty" yaml:"subSystemId,omitempty"`
	SubSystem     string `json:"subSystem,omitempty" yaml:"subSystem,omitempty"`
	Path          string `json:"path" yaml:"path"`
	Label         string `json:"label" yaml:"label"`
	Unit          string `json:"unit,omitempty" yaml:"unit,omitempty"`
	BaselineValue string `json:"baselineValue" yaml:"baselineValue"`
	CurrentValue  string `json:"currentValue" yaml:"currentValue"`
	Invalid       bool   `json:"invalid,omitempty" yaml:"invalid,omitempty"`

	deviation.Result `yaml:",inline"`
}

// StatusReport - пополевая классификация замера. Общий статус не вычисляется.
type StatusReport struct {
	Reading        int                    `json:"reading" yaml:"reading"`
	CollectionDate string                 `json:"collectionDate" yaml:"collectionDate"`
	TimeOfDay      string                 `json:"timeOfDay" yaml:"timeOfDay"`
	Fields         []FieldStatus          `json:"fields" yaml:"fields"`
	Counts         map[deviation.Tier]int `json:"counts" yaml:"counts"`
}

// StatusReport классифицирует замер index относительно базы.
func (w *Workspace) StatusReport(index int) (StatusReport, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if index < 0 || index >= len(w.st.Historical) {
		return StatusReport{}, apperrors.NewValidationError("reading index out of range").WithMetadata("index", index)
	}
	return BuildStatusReport(w.st.Baseline, w.st.Historical[index], index), nil
}

// BuildStatusReport сравнивает замер с базой. Зоны и подсистемы соединяются по id,
// неизменяемая геометрия пропускается.
func BuildStatusReport(baseline, reading models.ProcessData, index int) StatusReport {
	rep := StatusReport{
		Reading:        index,
		CollectionDate: reading.CollectionDate.Value,
		TimeOfDay:      reading.TimeOfDayValue(),
		Fields:         []FieldStatus{},
		Counts: map[deviation.Tier]int{
			deviation.TierNone:         0,
			deviation.TierInCompliance: 0,
			deviation.TierWarning:      0,
			deviation.TierCritical:     0,
		},
	}
	add := func(fs FieldStatus) {
		fs.Result = deviation.Classify(deviation.Input{
			Current:  fs.CurrentValue,
			Baseline: fs.BaselineValue,
			Mode:     deviation.ModeCurrent,
			Invalid:  fs.Invalid,
		})
		rep.Counts[fs.Tier]++
		rep.Fields = append(rep.Fields, fs)
	}

	add(FieldStatus{
		Path:          "conveyorSpeed",
		Label:         "Conveyor Speed",
		Unit:          "ft/min",
		BaselineValue: baseline.ConveyorSpeed.Value,
		CurrentValue:  reading.ConveyorSpeed.Value,
	})

	for zi := range reading.Zones {
		z := &reading.Zones[zi]
		bz := baseline.FindZone(z.ID)
		if bz == nil {
			continue
		}

		for _, f := range models.ZoneFields() {
			if f.Text || models.IsReadOnlyInCurrent(f.Path) {
				continue
			}
			cur, _ := z.Data.Param(f.Path)
			if cur == nil {
				continue
			}
			base, _ := bz.Data.Param(f.Path)
			add(FieldStatus{
				ZoneID: z.ID, Zone: z.Name,
				Path: f.Path, Label: f.Label, Unit: f.Unit,
				BaselineValue: paramValue(base),
				CurrentValue:  cur.Value,
			})
		}

		for si := range z.SubSystems {
			ss := &z.SubSystems[si]
			bi := bz.SubSystemIndex(ss.ID)
			if bi < 0 {
				continue
			}
			bss := &bz.SubSystems[bi]
			if bss.Type != ss.Type {
				continue
			}

			coilInverted := ss.Type == models.TypeCooler && ss.Cooler != nil &&
				deviation.CoolerCoilInverted(ss.Cooler.ChilledWaterCoil)
			for _, f := range models.SubSystemFields(ss.Type) {
				if models.IsReadOnlyInCurrent(f.Path) {
					continue
				}
				cur, err := ss.Param(f.Path)
				if err != nil || cur == nil {
					continue
				}
				base, _ := bss.Param(f.Path)
				add(FieldStatus{
					ZoneID: z.ID, Zone: z.Name,
					SubSystemID: ss.ID, SubSystem: ss.Name,
					Path: f.Path, Label: f.Label, Unit: f.Unit,
					BaselineValue: paramValue(base),
					CurrentValue:  cur.Value,
					Invalid:       coilInverted && strings.HasPrefix(f.Path, "chilledWaterCoil.temp"),
				})
			}
		}
	}
	return rep
}

func paramValue(p *models.Parameter) string {
	if p == nil {
		return ""
	}
	return p.Value
}

// ============================================================
// Trends
// ============================================================

type TrendPoint struct {
	Time    time.Time `json:"time" yaml:"time"`
	Reading int       `json:"reading" yaml:"reading"`
	Value   float64   `json:"value" yaml:"value"`
}

type TrendSeries struct {
	Param    string       `json:"param" yaml:"param"`
	Label    string       `json:"label" yaml:"label"`
	Unit     string       `json:"unit" yaml:"unit"`
	Baseline *float64     `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Points   []TrendPoint `json:"points" yaml:"points"`
}

// TrendQuery - выборка для графика. Нулевые From/To не ограничивают диапазон,
// To включает весь указанный день.
type TrendQuery struct {
	ZoneID string
	Params []string
	From   time.Time
	To     time.Time
}

// Trend строит временные ряды параметров зоны по всем замерам.
func (w *Workspace) Trend(q TrendQuery) ([]TrendSeries, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return BuildTrend(w.st.Baseline, w.st.Historical, q)
}

func BuildTrend(baseline models.ProcessData, readings []models.ProcessData, q TrendQuery) ([]TrendSeries, error) {
	bz := baseline.FindZone(q.ZoneID)
	if bz == nil {
		return nil, apperrors.NewNotFoundError("zone", q.ZoneID)
	}
	if len(q.Params) == 0 {
		return nil, apperrors.NewValidationError("at least one parameter is required")
	}

	selectable := make(map[string]models.FieldSpec)
	for _, f := range models.TrendFields() {
		selectable[f.Path] = f
	}

	var toEnd time.Time
	if !q.To.IsZero() {
		y, m, d := q.To.Date()
		toEnd = time.Date(y, m, d, 0, 0, 0, 0, q.To.Location()).AddDate(0, 0, 1)
	}

	out := make([]TrendSeries, 0, len(q.Params))
	for _, param := range q.Params {
		def, ok := selectable[param]
		if !ok {
			return nil, apperrors.NewValidationError("parameter is not available for trends").WithMetadata("param", param)
		}
		series := TrendSeries{Param: def.Path, Label: def.Label, Unit: def.Unit, Points: []TrendPoint{}}
		if p, _ := bz.Data.Param(param); p != nil {
			if v, ok := p.Float(); ok {
				series.Baseline = &v
			}
		}

		for i := range readings {
			r := &readings[i]
			ts, ok := ReadingTime(*r)
			if !ok {
				continue
			}
			if !q.From.IsZero() && ts.Before(q.From) {
				continue
			}
			if !toEnd.IsZero() && !ts.Before(toEnd) {
				continue
			}
			z := r.FindZone(q.ZoneID)
			if z == nil {
				continue
			}
			p, _ := z.Data.Param(param)
			if p == nil {
				continue
			}
			v, ok := p.Float()
			if !ok {
				continue
			}
			series.Points = append(series.Points, TrendPoint{Time: ts, Reading: i, Value: v})
		}

		sort.SliceStable(series.Points, func(a, b int) bool {
			return series.Points[a].Time.Before(series.Points[b].Time)
		})
		out = append(out, series)
	}
	return out, nil
}

// ReadingTime - момент замера: дата YYYY-MM-DD и время HH:MM (по умолчанию 00:00).
func ReadingTime(r models.ProcessData) (time.Time, bool) {
	date := strings.TrimSpace(r.CollectionDate.Value)
	if date == "" {
		return time.Time{}, false
	}
	tod := strings.TrimSpace(r.TimeOfDayValue())
	if tod == "" {
		tod = "00:00"
	}
	ts, err := time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, date+" "+tod, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// ============================================================
// Process times
// ============================================================

type ZoneProcessTime struct {
	ZoneID   string `json:"zoneId" yaml:"zoneId"`
	Zone     string `json:"zone" yaml:"zone"`
	Baseline string `json:"baseline" yaml:"baseline"`
	Current  string `json:"current" yaml:"current"`
}

// ProcessTimes - время прохождения каждой зоны базы в минутах для базы и активного замера.
func (w *Workspace) ProcessTimes() []ZoneProcessTime {
	w.mu.RLock()
	defer w.mu.RUnlock()

	active := w.st.Historical[w.st.ActiveIndex]
	out := make([]ZoneProcessTime, 0, len(w.st.Baseline.Zones))
	for _, z := range w.st.Baseline.Zones {
		out = append(out, ZoneProcessTime{
			ZoneID:   z.ID,
			Zone:     z.Name,
			Baseline: derive.ProcessTime(z.Data.ZoneLength, w.st.Baseline.ConveyorSpeed),
			Current:  derive.ProcessTime(z.Data.ZoneLength, active.ConveyorSpeed),
		})
	}
	return out
}
