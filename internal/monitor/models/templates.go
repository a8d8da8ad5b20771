package models

import "time"

// ============================================================
// Templates
// ============================================================

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	NewZoneName = "New Stage"
)

func blankDuct() DuctworkData {
	return DuctworkData{StaticPressure: NewParam("")}
}

func blankFan() *FanMotorData {
	return &FanMotorData{Hz: NewParam(""), HP: NewParam(""), FLA: NewParam(""), RPM: NewParam("")}
}

// BlankProcessData возвращает пустой снимок с датой сбора now.
func BlankProcessData(now time.Time) ProcessData {
	return ProcessData{
		CollectionDate:          Parameter{Value: now.Format(DateLayout)},
		ProductSize:             ProductNone,
		Zones:                   []Zone{},
		TimeOfDay:               NewParam(""),
		OutsideTemperature:      NewParam(""),
		OutsideRelativeHumidity: NewParam(""),
	}
}

// NewZone создаёт зону-шаблон: все блоки присутствуют и пусты.
func NewZone(id string) Zone {
	return Zone{
		ID:   id,
		Name: NewZoneName,
		Data: ZoneData{
			Design:       DesignHeated,
			Supply:       blankDuct(),
			Exhaust:      blankDuct(),
			Infiltration: &AirLeakage{},
			Exfiltration: &AirLeakage{},
			Purpose:      NewParam(""),
			Notes:        NewParam(""),
		},
		SubSystems: []SubSystem{},
	}
}

// NewSubSystem создаёт подсистему заданного типа со всеми необязательными блоками.
func NewSubSystem(id string, t SubSystemType, name string) (SubSystem, error) {
	s := SubSystem{ID: id, Name: name, Type: t}
	switch t {
	case TypeHeaterBox:
		s.HeaterBox = &HeaterBoxData{CombustionFan: blankFan(), CirculationFan: blankFan()}
	case TypeCooler:
		s.Cooler = &CoolerData{FanMotor: blankFan()}
	case TypeAirSupplyHouse:
		s.AirSupplyHouse = &AirSupplyHouseData{AirSystem: AirSystemData{
			DuctworkData: blankDuct(),
			FanMotorData: *blankFan(),
		}}
	default:
		return SubSystem{}, ErrUnknownSubSystemType
	}
	return s, nil
}

// AvailableSubSystems возвращает типы подсистем, допустимые для категории зоны.
func AvailableSubSystems(design ZoneDesign) []SubSystemType {
	switch design {
	case DesignHeated:
		return []SubSystemType{TypeHeaterBox, TypeAirSupplyHouse}
	case DesignCooled:
		return []SubSystemType{TypeCooler, TypeAirSupplyHouse}
	case DesignBooth, DesignAmbient:
		return []SubSystemType{TypeAirSupplyHouse}
	}
	return nil
}

// SubSystemAllowed сообщает, можно ли добавить подсистему типа t в зону категории design.
func SubSystemAllowed(design ZoneDesign, t SubSystemType) bool {
	for _, allowed := range AvailableSubSystems(design) {
		if allowed == t {
			return true
		}
	}
	return false
}
