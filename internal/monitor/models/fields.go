package models

// FieldSpec описывает адресуемое поле для отчётов и графиков.
type FieldSpec struct {
	Path  string `json:"path" yaml:"path"`
	Label string `json:"label" yaml:"label"`
	Unit  string `json:"unit" yaml:"unit"`
	Text  bool   `json:"text,omitempty" yaml:"text,omitempty"`
}

func ductFields(prefix, title string) []FieldSpec {
	return []FieldSpec{
		{Path: prefix + ".airflow", Label: title + " Airflow", Unit: "CFM"},
		{Path: prefix + ".velocity", Label: title + " Velocity", Unit: "FPM"},
		{Path: prefix + ".staticPressure", Label: title + " Static Pressure", Unit: "in WC"},
		{Path: prefix + ".ductLength", Label: title + " Duct Length", Unit: "in"},
		{Path: prefix + ".ductWidth", Label: title + " Duct Width", Unit: "in"},
	}
}

func fanFields(prefix, title string) []FieldSpec {
	return []FieldSpec{
		{Path: prefix + ".hz", Label: title + " Frequency", Unit: "Hz"},
		{Path: prefix + ".hp", Label: title + " Horsepower", Unit: "HP"},
		{Path: prefix + ".fla", Label: title + " Full Load Amps", Unit: "A"},
		{Path: prefix + ".rpm", Label: title + " Speed", Unit: "RPM"},
	}
}

// ZoneFields перечисляет поля зоны в порядке отображения.
func ZoneFields() []FieldSpec {
	out := []FieldSpec{
		{Path: "temperature", Label: "Temperature", Unit: "°F"},
		{Path: "relativeHumidity", Label: "Relative Humidity", Unit: "%"},
	}
	out = append(out, ductFields("supply", "Supply")...)
	out = append(out, ductFields("exhaust", "Exhaust")...)
	out = append(out,
		FieldSpec{Path: "infiltration.volume", Label: "Infiltration Volume", Unit: "CFM"},
		FieldSpec{Path: "infiltration.silhouetteSize", Label: "Infiltration Silhouette Size", Unit: "sq in"},
		FieldSpec{Path: "exfiltration.volume", Label: "Exfiltration Volume", Unit: "CFM"},
		FieldSpec{Path: "exfiltration.silhouetteSize", Label: "Exfiltration Silhouette Size", Unit: "sq in"},
		FieldSpec{Path: PathZoneLength, Label: "Zone Length", Unit: "ft"},
		FieldSpec{Path: PathInternalWidth, Label: "Internal Width", Unit: "ft"},
		FieldSpec{Path: PathInternalHeight, Label: "Internal Height", Unit: "ft"},
		FieldSpec{Path: PathPurpose, Label: "Stage Purpose", Text: true},
		FieldSpec{Path: "notes", Label: "Notes", Text: true},
	)
	return out
}

// SubSystemFields перечисляет поля подсистемы заданного типа.
func SubSystemFields(t SubSystemType) []FieldSpec {
	switch t {
	case TypeHeaterBox:
		out := []FieldSpec{{Path: "burnerRating", Label: "Burner Rating", Unit: "MM BTU/Hr"}}
		out = append(out, fanFields("combustionFan", "Combustion Fan")...)
		return append(out, fanFields("circulationFan", "Circulation Fan")...)
	case TypeCooler:
		out := []FieldSpec{
			{Path: "chilledWaterCoil.tempIn", Label: "CW Temp In", Unit: "°F"},
			{Path: "chilledWaterCoil.pressureIn", Label: "CW Pressure In", Unit: "PSI"},
			{Path: "chilledWaterCoil.tempOut", Label: "CW Temp Out", Unit: "°F"},
			{Path: "chilledWaterCoil.pressureOut", Label: "CW Pressure Out", Unit: "PSI"},
		}
		return append(out, fanFields("fanMotor", "Fan Motor")...)
	case TypeAirSupplyHouse:
		out := ductFields("airSystem", "Air System")
		return append(out, fanFields("airSystem", "Air System")...)
	}
	return nil
}

// TrendFields - параметры зоны, доступные для графика тренда.
func TrendFields() []FieldSpec {
	keep := map[string]bool{
		"temperature":            true,
		"relativeHumidity":       true,
		"supply.airflow":         true,
		"supply.staticPressure":  true,
		"exhaust.airflow":        true,
		"exhaust.staticPressure": true,
		"infiltration.volume":    true,
		"exfiltration.volume":    true,
	}
	var out []FieldSpec
	for _, f := range ZoneFields() {
		if keep[f.Path] {
			out = append(out, f)
		}
	}
	return out
}

// LookupZoneField ищет описание поля зоны по пути.
func LookupZoneField(path string) (FieldSpec, bool) {
	for _, f := range ZoneFields() {
		if f.Path == path {
			return f, true
		}
	}
	return FieldSpec{}, false
}
