package derive

import (
	"math"
	"sync"

	"process-monitor/internal/monitor/models"
)

// ============================================================
// Duct geometry
// ============================================================

const squareInchesPerSquareFoot = 144

// DuctArea считает сечение воздуховода в кв. футах по размерам в дюймах.
func DuctArea(length, width models.Parameter) (float64, bool) {
	l, okL := length.Float()
	w, okW := width.Float()
	if !okL || !okW || l <= 0 || w <= 0 {
		return 0, false
	}
	return l * w / squareInchesPerSquareFoot, true
}

// ============================================================
// Last-edited state machine
// ============================================================

// LastEdited - какое поле пользователь менял последним.
type LastEdited int

const (
	None LastEdited = iota
	Velocity
	AirflowOrDuct
)

func (s LastEdited) String() string {
	switch s {
	case Velocity:
		return "velocity"
	case AirflowOrDuct:
		return "airflow-or-duct"
	}
	return "none"
}

// Next возвращает состояние после правки поля воздуховода.
func Next(state LastEdited, field string) LastEdited {
	switch field {
	case models.DuctVelocity:
		return Velocity
	case models.DuctAirflow, models.DuctLength, models.DuctWidth:
		return AirflowOrDuct
	}
	return state
}

// Update - пересчитанное значение для записи обратно.
type Update struct {
	Field string
	Value string
}

// Recompute пересчитывает расход или скорость по последней правке.
// Результат возвращается только если строка отличается от сохранённой.
func Recompute(duct models.DuctworkData, state LastEdited) (Update, bool) {
	area, ok := DuctArea(duct.DuctLength, duct.DuctWidth)
	if !ok {
		return Update{}, false
	}

	switch state {
	case Velocity:
		v, ok := duct.Velocity.Float()
		if !ok {
			return Update{}, false
		}
		airflow := models.FormatFixed(v*area, 0)
		if airflow == duct.Airflow.Value {
			return Update{}, false
		}
		return Update{Field: models.DuctAirflow, Value: airflow}, true

	case AirflowOrDuct:
		a, ok := duct.Airflow.Float()
		if !ok {
			return Update{}, false
		}
		v := a / area
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return Update{}, false
		}
		velocity := models.FormatFixed(v, 0)
		if velocity == duct.Velocity.Value {
			return Update{}, false
		}
		return Update{Field: models.DuctVelocity, Value: velocity}, true
	}
	return Update{}, false
}

// ============================================================
// Tracker
// ============================================================

// Key идентифицирует воздуховод внутри снимка.
type Key struct {
	ZoneID      string
	SubSystemID string
	Duct        string
}

// Tracker хранит состояние последней правки для каждого воздуховода.
type Tracker struct {
	mu     sync.Mutex
	states map[Key]LastEdited
}

func NewTracker() *Tracker {
	return &Tracker{states: make(map[Key]LastEdited)}
}

// Observe фиксирует правку поля и возвращает новое состояние воздуховода.
func (t *Tracker) Observe(key Key, field string) LastEdited {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := Next(t.states[key], field)
	if next != None {
		t.states[key] = next
	}
	return next
}

// State возвращает текущее состояние воздуховода.
func (t *Tracker) State(key Key) LastEdited {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[key]
}

// Reset забывает все состояния, например при смене активного замера.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = make(map[Key]LastEdited)
}

// ============================================================
// Process time
// ============================================================

const NoProcessTime = "---"

// ProcessTime - время прохождения зоны в минутах: длина / скорость конвейера.
func ProcessTime(zoneLength, conveyorSpeed models.Parameter) string {
	length, okL := zoneLength.Float()
	speed, okS := conveyorSpeed.Float()
	if !okL || !okS || speed <= 0 {
		return NoProcessTime
	}
	return models.FormatFixed(length/speed, 2)
}
