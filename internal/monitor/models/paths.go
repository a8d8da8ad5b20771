package models

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Field addressing by dot path
// ============================================================

// ErrUnknownPath возвращается для пути, которого нет у сущности.
var ErrUnknownPath = errors.New("unknown field path")

// Пути полей геометрии, которые физически неизменны.
const (
	PathZoneLength     = "zoneLength"
	PathInternalWidth  = "internalWidth"
	PathInternalHeight = "internalHeight"
	PathPurpose        = "purpose"
)

// Поля воздуховода.
const (
	DuctAirflow    = "airflow"
	DuctVelocity   = "velocity"
	DuctLength     = "ductLength"
	DuctWidth      = "ductWidth"
	DuctStaticPres = "staticPressure"
)

// Param возвращает параметр зоны по пути. Для отсутствующего необязательного блока - nil.
func (z *ZoneData) Param(path string) (*Parameter, error) {
	return z.param(path, false)
}

// SetParam записывает значение, создавая отсутствующий необязательный блок.
func (z *ZoneData) SetParam(path, value string) error {
	p, err := z.param(path, true)
	if err != nil {
		return err
	}
	p.Value = value
	return nil
}

func (z *ZoneData) param(path string, create bool) (*Parameter, error) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		switch head {
		case "temperature":
			return &z.Temperature, nil
		case "relativeHumidity":
			return &z.RelativeHumidity, nil
		case PathZoneLength:
			return &z.ZoneLength, nil
		case PathInternalWidth:
			return &z.InternalWidth, nil
		case PathInternalHeight:
			return &z.InternalHeight, nil
		case PathPurpose:
			return optional(&z.Purpose, create), nil
		case "notes":
			return optional(&z.Notes, create), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}

	switch head {
	case "supply":
		return ductParam(&z.Supply, rest, create, path)
	case "exhaust":
		return ductParam(&z.Exhaust, rest, create, path)
	case "infiltration":
		return leakageParam(&z.Infiltration, rest, create, path)
	case "exfiltration":
		return leakageParam(&z.Exfiltration, rest, create, path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
}

// Param возвращает параметр подсистемы по пути внутри её данных.
func (s *SubSystem) Param(path string) (*Parameter, error) {
	return s.param(path, false)
}

// SetParam записывает значение поля подсистемы.
func (s *SubSystem) SetParam(path, value string) error {
	p, err := s.param(path, true)
	if err != nil {
		return err
	}
	p.Value = value
	return nil
}

func (s *SubSystem) param(path string, create bool) (*Parameter, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	head, rest, nested := strings.Cut(path, ".")

	switch s.Type {
	case TypeHeaterBox:
		d := s.HeaterBox
		switch {
		case !nested && head == "burnerRating":
			return &d.BurnerRating, nil
		case nested && head == "combustionFan":
			return fanParam(&d.CombustionFan, rest, create, path)
		case nested && head == "circulationFan":
			return fanParam(&d.CirculationFan, rest, create, path)
		}
	case TypeCooler:
		d := s.Cooler
		switch {
		case nested && head == "chilledWaterCoil":
			return coilParam(&d.ChilledWaterCoil, rest, path)
		case nested && head == "fanMotor":
			return fanParam(&d.FanMotor, rest, create, path)
		}
	case TypeAirSupplyHouse:
		if nested && head == "airSystem" {
			return airSystemParam(&s.AirSupplyHouse.AirSystem, rest, create, path)
		}
	}
	return nil, fmt.Errorf("%w: %q for %s", ErrUnknownPath, path, s.Type)
}

// ============================================================
// Block helpers
// ============================================================

func optional(slot **Parameter, create bool) *Parameter {
	if *slot == nil && create {
		*slot = &Parameter{}
	}
	return *slot
}

func ductParam(d *DuctworkData, field string, create bool, path string) (*Parameter, error) {
	switch field {
	case DuctAirflow:
		return &d.Airflow, nil
	case DuctVelocity:
		return &d.Velocity, nil
	case DuctLength:
		return &d.DuctLength, nil
	case DuctWidth:
		return &d.DuctWidth, nil
	case DuctStaticPres:
		return optional(&d.StaticPressure, create), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
}

func fanParam(slot **FanMotorData, field string, create bool, path string) (*Parameter, error) {
	switch field {
	case "hz", "hp", "fla", "rpm":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	if *slot == nil {
		if !create {
			return nil, nil
		}
		*slot = &FanMotorData{}
	}
	return fanField(*slot, field, create), nil
}

func fanField(f *FanMotorData, field string, create bool) *Parameter {
	switch field {
	case "hz":
		return optional(&f.Hz, create)
	case "hp":
		return optional(&f.HP, create)
	case "fla":
		return optional(&f.FLA, create)
	case "rpm":
		return optional(&f.RPM, create)
	}
	return nil
}

func airSystemParam(a *AirSystemData, field string, create bool, path string) (*Parameter, error) {
	switch field {
	case "hz", "hp", "fla", "rpm":
		return fanField(&a.FanMotorData, field, create), nil
	}
	return ductParam(&a.DuctworkData, field, create, path)
}

func coilParam(c *ChilledWaterCoil, field, path string) (*Parameter, error) {
	switch field {
	case "tempIn":
		return &c.TempIn, nil
	case "pressureIn":
		return &c.PressureIn, nil
	case "tempOut":
		return &c.TempOut, nil
	case "pressureOut":
		return &c.PressureOut, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
}

func leakageParam(slot **AirLeakage, field string, create bool, path string) (*Parameter, error) {
	if field != "volume" && field != "silhouetteSize" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	if *slot == nil {
		if !create {
			return nil, nil
		}
		*slot = &AirLeakage{}
	}
	if field == "volume" {
		return &(*slot).Volume, nil
	}
	return &(*slot).SilhouetteSize, nil
}

// ============================================================
// Path classification
// ============================================================

// IsConstantField сообщает, что поле описывает неизменную геометрию зоны.
func IsConstantField(path string) bool {
	switch path {
	case PathZoneLength, PathInternalWidth, PathInternalHeight, PathPurpose:
		return true
	}
	return false
}

// SplitDuctPath разбирает путь поля воздуховода: "supply.airflow" -> ("supply", "airflow").
func SplitDuctPath(path string) (duct, field string, ok bool) {
	duct, field, ok = strings.Cut(path, ".")
	if !ok {
		return "", "", false
	}
	switch duct {
	case "supply", "exhaust", "airSystem":
	default:
		return "", "", false
	}
	switch field {
	case DuctAirflow, DuctVelocity, DuctLength, DuctWidth:
		return duct, field, true
	}
	return "", "", false
}

// IsReadOnlyInCurrent сообщает, что поле нельзя менять в замере:
// геометрия зоны и размеры воздуховодов задаются проектом.
func IsReadOnlyInCurrent(path string) bool {
	if IsConstantField(path) {
		return true
	}
	_, field, ok := SplitDuctPath(path)
	return ok && (field == DuctLength || field == DuctWidth)
}
