package models

// ============================================================
// Enumerations
// ============================================================

type ZoneDesign string

const (
	DesignBooth   ZoneDesign = "Booth"
	DesignHeated  ZoneDesign = "Heated"
	DesignCooled  ZoneDesign = "Cooled"
	DesignAmbient ZoneDesign = "Ambient"
)

// Valid сообщает, что категория зоны известна.
func (d ZoneDesign) Valid() bool {
	switch d {
	case DesignBooth, DesignHeated, DesignCooled, DesignAmbient:
		return true
	}
	return false
}

type ProductSize string

const (
	ProductNone ProductSize = ""
	ProductCar  ProductSize = "Car"
	ProductSUV  ProductSize = "SUV"
)

func (p ProductSize) Valid() bool {
	switch p {
	case ProductNone, ProductCar, ProductSUV:
		return true
	}
	return false
}

// ============================================================
// Process data tree
// ============================================================

type CustomerInfo struct {
	Name          Parameter `json:"name"`
	Location      Parameter `json:"location"`
	ContactPerson Parameter `json:"contactPerson"`
}

type FanMotorData struct {
	Hz  *Parameter `json:"hz,omitempty"`
	HP  *Parameter `json:"hp,omitempty"`
	FLA *Parameter `json:"fla,omitempty"`
	RPM *Parameter `json:"rpm,omitempty"`
}

// HasAny сообщает, что у двигателя есть хотя бы одно поле.
func (f FanMotorData) HasAny() bool {
	return f.Hz != nil || f.HP != nil || f.FLA != nil || f.RPM != nil
}

func (f *FanMotorData) clone() *FanMotorData {
	if f == nil {
		return nil
	}
	cp := f.cloneValue()
	return &cp
}

func (f FanMotorData) cloneValue() FanMotorData {
	return FanMotorData{
		Hz:  f.Hz.clone(),
		HP:  f.HP.clone(),
		FLA: f.FLA.clone(),
		RPM: f.RPM.clone(),
	}
}

type DuctworkData struct {
	Airflow        Parameter  `json:"airflow"`
	StaticPressure *Parameter `json:"staticPressure,omitempty"`
	DuctLength     Parameter  `json:"ductLength"`
	DuctWidth      Parameter  `json:"ductWidth"`
	Velocity       Parameter  `json:"velocity"`
}

func (d DuctworkData) clone() DuctworkData {
	cp := d
	cp.StaticPressure = d.StaticPressure.clone()
	return cp
}

// AirSystemData объединяет воздуховод и двигатель вентилятора в одной записи.
type AirSystemData struct {
	DuctworkData
	FanMotorData
}

func (a AirSystemData) clone() AirSystemData {
	return AirSystemData{
		DuctworkData: a.DuctworkData.clone(),
		FanMotorData: a.FanMotorData.cloneValue(),
	}
}

type ChilledWaterCoil struct {
	TempIn      Parameter `json:"tempIn"`
	PressureIn  Parameter `json:"pressureIn"`
	TempOut     Parameter `json:"tempOut"`
	PressureOut Parameter `json:"pressureOut"`
}

type AirLeakage struct {
	Volume         Parameter `json:"volume"`
	SilhouetteSize Parameter `json:"silhouetteSize"`
}

func (a *AirLeakage) clone() *AirLeakage {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

type ZoneData struct {
	Design           ZoneDesign   `json:"design"`
	Temperature      Parameter    `json:"temperature"`
	RelativeHumidity Parameter    `json:"relativeHumidity"`
	Supply           DuctworkData `json:"supply"`
	Exhaust          DuctworkData `json:"exhaust"`
	Infiltration     *AirLeakage  `json:"infiltration,omitempty"`
	Exfiltration     *AirLeakage  `json:"exfiltration,omitempty"`
	ZoneLength       Parameter    `json:"zoneLength"`
	InternalWidth    Parameter    `json:"internalWidth"`
	InternalHeight   Parameter    `json:"internalHeight"`
	Purpose          *Parameter   `json:"purpose,omitempty"`
	Notes            *Parameter   `json:"notes,omitempty"`
}

func (z ZoneData) clone() ZoneData {
	cp := z
	cp.Supply = z.Supply.clone()
	cp.Exhaust = z.Exhaust.clone()
	cp.Infiltration = z.Infiltration.clone()
	cp.Exfiltration = z.Exfiltration.clone()
	cp.Purpose = z.Purpose.clone()
	cp.Notes = z.Notes.clone()
	return cp
}

// Zone - участок линии. ID совпадает во всех снимках и служит ключом соединения.
type Zone struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Data       ZoneData    `json:"data"`
	SubSystems []SubSystem `json:"subSystems"`
}

// Clone возвращает глубокую копию зоны.
func (z Zone) Clone() Zone {
	cp := Zone{
		ID:         z.ID,
		Name:       z.Name,
		Data:       z.Data.clone(),
		SubSystems: make([]SubSystem, 0, len(z.SubSystems)),
	}
	for _, ss := range z.SubSystems {
		cp.SubSystems = append(cp.SubSystems, ss.Clone())
	}
	return cp
}

// SubSystemIndex ищет подсистему по id.
func (z *Zone) SubSystemIndex(id string) int {
	for i := range z.SubSystems {
		if z.SubSystems[i].ID == id {
			return i
		}
	}
	return -1
}

// ProcessData - один снимок: базовый проект или замер.
type ProcessData struct {
	CustomerInfo            CustomerInfo `json:"customerInfo"`
	CollectionDate          Parameter    `json:"collectionDate"`
	ProductSize             ProductSize  `json:"productSize"`
	ConveyorSpeed           Parameter    `json:"conveyorSpeed"`
	Zones                   []Zone       `json:"zones"`
	TimeOfDay               *Parameter   `json:"timeOfDay,omitempty"`
	OutsideTemperature      *Parameter   `json:"outsideTemperature,omitempty"`
	OutsideRelativeHumidity *Parameter   `json:"outsideRelativeHumidity,omitempty"`
}

// Clone возвращает глубокую копию снимка без общих указателей.
func (p ProcessData) Clone() ProcessData {
	cp := p
	cp.Zones = make([]Zone, 0, len(p.Zones))
	for _, z := range p.Zones {
		cp.Zones = append(cp.Zones, z.Clone())
	}
	cp.TimeOfDay = p.TimeOfDay.clone()
	cp.OutsideTemperature = p.OutsideTemperature.clone()
	cp.OutsideRelativeHumidity = p.OutsideRelativeHumidity.clone()
	return cp
}

// ZoneIndex ищет зону по id.
func (p *ProcessData) ZoneIndex(id string) int {
	for i := range p.Zones {
		if p.Zones[i].ID == id {
			return i
		}
	}
	return -1
}

// FindZone возвращает зону по id или nil.
func (p *ProcessData) FindZone(id string) *Zone {
	if i := p.ZoneIndex(id); i >= 0 {
		return &p.Zones[i]
	}
	return nil
}

// TimeOfDayValue возвращает время замера или пустую строку.
func (p ProcessData) TimeOfDayValue() string {
	return valueOf(p.TimeOfDay)
}

// CloneAll копирует список снимков.
func CloneAll(list []ProcessData) []ProcessData {
	out := make([]ProcessData, 0, len(list))
	for _, p := range list {
		out = append(out, p.Clone())
	}
	return out
}
