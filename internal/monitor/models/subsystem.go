package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ============================================================
// Sub-systems
// ============================================================

type SubSystemType string

const (
	TypeHeaterBox      SubSystemType = "HeaterBox"
	TypeCooler         SubSystemType = "Cooler"
	TypeAirSupplyHouse SubSystemType = "AirSupplyHouse"
)

// Valid сообщает, что тип подсистемы известен.
func (t SubSystemType) Valid() bool {
	switch t {
	case TypeHeaterBox, TypeCooler, TypeAirSupplyHouse:
		return true
	}
	return false
}

// Label возвращает человекочитаемое название типа.
func (t SubSystemType) Label() string {
	switch t {
	case TypeHeaterBox:
		return "Heater Box"
	case TypeCooler:
		return "Cooler"
	case TypeAirSupplyHouse:
		return "Air Supply House"
	}
	return string(t)
}

var (
	ErrUnknownSubSystemType = errors.New("unknown sub-system type")
	ErrPayloadMismatch      = errors.New("sub-system payload does not match its type")
)

type HeaterBoxData struct {
	BurnerRating   Parameter     `json:"burnerRating"`
	CombustionFan  *FanMotorData `json:"combustionFan,omitempty"`
	CirculationFan *FanMotorData `json:"circulationFan,omitempty"`
}

type CoolerData struct {
	ChilledWaterCoil ChilledWaterCoil `json:"chilledWaterCoil"`
	FanMotor         *FanMotorData    `json:"fanMotor,omitempty"`
}

type AirSupplyHouseData struct {
	AirSystem AirSystemData `json:"airSystem"`
}

// SubSystem - размеченное объединение. Заполнен ровно один payload, соответствующий Type.
type SubSystem struct {
	ID   string
	Name string
	Type SubSystemType

	HeaterBox      *HeaterBoxData
	Cooler         *CoolerData
	AirSupplyHouse *AirSupplyHouseData
}

// Validate проверяет согласованность тега и данных.
func (s SubSystem) Validate() error {
	set := 0
	for _, ok := range []bool{s.HeaterBox != nil, s.Cooler != nil, s.AirSupplyHouse != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %s has %d payloads", ErrPayloadMismatch, s.Type, set)
	}

	switch s.Type {
	case TypeHeaterBox:
		if s.HeaterBox == nil {
			return fmt.Errorf("%w: %s", ErrPayloadMismatch, s.Type)
		}
	case TypeCooler:
		if s.Cooler == nil {
			return fmt.Errorf("%w: %s", ErrPayloadMismatch, s.Type)
		}
	case TypeAirSupplyHouse:
		if s.AirSupplyHouse == nil {
			return fmt.Errorf("%w: %s", ErrPayloadMismatch, s.Type)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSubSystemType, s.Type)
	}
	return nil
}

// Clone возвращает глубокую копию подсистемы.
func (s SubSystem) Clone() SubSystem {
	cp := SubSystem{ID: s.ID, Name: s.Name, Type: s.Type}
	switch s.Type {
	case TypeHeaterBox:
		if s.HeaterBox != nil {
			cp.HeaterBox = &HeaterBoxData{
				BurnerRating:   s.HeaterBox.BurnerRating,
				CombustionFan:  s.HeaterBox.CombustionFan.clone(),
				CirculationFan: s.HeaterBox.CirculationFan.clone(),
			}
		}
	case TypeCooler:
		if s.Cooler != nil {
			cp.Cooler = &CoolerData{
				ChilledWaterCoil: s.Cooler.ChilledWaterCoil,
				FanMotor:         s.Cooler.FanMotor.clone(),
			}
		}
	case TypeAirSupplyHouse:
		if s.AirSupplyHouse != nil {
			cp.AirSupplyHouse = &AirSupplyHouseData{AirSystem: s.AirSupplyHouse.AirSystem.clone()}
		}
	}
	return cp
}

// ============================================================
// JSON
// ============================================================

type subSystemEnvelope struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type SubSystemType   `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (s SubSystem) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var payload any
	switch s.Type {
	case TypeHeaterBox:
		payload = s.HeaterBox
	case TypeCooler:
		payload = s.Cooler
	case TypeAirSupplyHouse:
		payload = s.AirSupplyHouse
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(subSystemEnvelope{ID: s.ID, Name: s.Name, Type: s.Type, Data: data})
}

func (s *SubSystem) UnmarshalJSON(b []byte) error {
	var env subSystemEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	out := SubSystem{ID: env.ID, Name: env.Name, Type: env.Type}
	data := env.Data
	if len(data) == 0 || string(data) == "null" {
		data = []byte("{}")
	}

	switch env.Type {
	case TypeHeaterBox:
		out.HeaterBox = &HeaterBoxData{}
		if err := json.Unmarshal(data, out.HeaterBox); err != nil {
			return fmt.Errorf("heater box %s: %w", env.ID, err)
		}
	case TypeCooler:
		out.Cooler = &CoolerData{}
		if err := json.Unmarshal(data, out.Cooler); err != nil {
			return fmt.Errorf("cooler %s: %w", env.ID, err)
		}
	case TypeAirSupplyHouse:
		out.AirSupplyHouse = &AirSupplyHouseData{}
		if err := json.Unmarshal(data, out.AirSupplyHouse); err != nil {
			return fmt.Errorf("air supply house %s: %w", env.ID, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSubSystemType, env.Type)
	}

	*s = out
	return nil
}
