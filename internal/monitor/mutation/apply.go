package mutation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"process-monitor/internal/monitor/derive"
	"process-monitor/internal/monitor/deviation"
	"process-monitor/internal/monitor/models"
)

// State - снимки, над которыми выполняются правки.
type State struct {
	Baseline   models.ProcessData
	Historical []models.ProcessData
	Active     int
}

// Clone возвращает глубокую копию состояния.
func (s State) Clone() State {
	return State{
		Baseline:   s.Baseline.Clone(),
		Historical: models.CloneAll(s.Historical),
		Active:     s.Active,
	}
}

// Result - новое состояние после успешной правки.
type Result struct {
	State State
	Scope Scope
	// CreatedID - id добавленной зоны или подсистемы.
	CreatedID string
	// Touched - сколько снимков изменено.
	Touched int
	// Derived - пересчитанное поле воздуховода, если движок сработал.
	Derived *derive.Update
}

// ============================================================
// Dispatch table
// ============================================================

type applyFunc func(p *models.ProcessData, e Edit) error

type rule struct {
	scope    Scope
	validate func(e Edit) error
	apply    applyFunc
}

var rules = map[Kind]rule{
	KindZoneField:               {ScopeWhitelist, needZonePath, applyZoneField},
	KindSubSystemField:          {ScopeLocal, needSubSystemPath, applySubSystemField},
	KindZoneName:                {ScopeBroadcast, needZone, applyZoneName},
	KindZoneDesign:              {ScopeBroadcast, needDesign, applyZoneDesign},
	KindZoneAdd:                 {ScopeBroadcast, nil, applyZoneAdd},
	KindZoneRemove:              {ScopeBroadcast, needConfirmedZone, applyZoneRemove},
	KindSubSystemAdd:            {ScopeBroadcast, needSubSystemType, applySubSystemAdd},
	KindSubSystemRemove:         {ScopeBroadcast, needSubSystem, applySubSystemRemove},
	KindSubSystemName:           {ScopeBroadcast, needSubSystem, applySubSystemName},
	KindCustomerInfo:            {ScopeShared, needCustomerField, applyCustomerInfo},
	KindConveyorSpeed:           {ScopeLocal, nil, applyConveyorSpeed},
	KindProductSize:             {ScopeLocal, needProductSize, applyProductSize},
	KindCollectionDate:          {ScopeReading, nil, applyCollectionDate},
	KindTimeOfDay:               {ScopeReading, nil, applyTimeOfDay},
	KindOutsideTemperature:      {ScopeReading, nil, applyOutsideTemperature},
	KindOutsideRelativeHumidity: {ScopeReading, nil, applyOutsideRelativeHumidity},
}

// ScopeOf возвращает область действия вида правки.
func ScopeOf(kind Kind) (Scope, bool) {
	r, ok := rules[kind]
	return r.scope, ok
}

// Kinds возвращает все известные виды правок.
func Kinds() []Kind {
	out := make([]Kind, 0, len(rules))
	for k := range rules {
		out = append(out, k)
	}
	return out
}

// ============================================================
// Applier
// ============================================================

// Applier применяет правки к копии состояния и запускает пересчёт воздуховодов.
type Applier struct {
	tracker *derive.Tracker
	newID   func() string
}

// NewApplier создаёт Applier. newID == nil означает uuid.
func NewApplier(tracker *derive.Tracker, newID func() string) *Applier {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Applier{tracker: tracker, newID: newID}
}

type target struct {
	snap    *models.ProcessData
	primary bool
}

// Apply выполняет правку. Исходное состояние не меняется; при ошибке Result пуст.
func (a *Applier) Apply(state State, e Edit) (Result, error) {
	r, ok := rules[e.Kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	if err := checkMode(r.scope, e.Mode); err != nil {
		return Result{}, err
	}
	if r.validate != nil {
		if err := r.validate(e); err != nil {
			return Result{}, err
		}
	}
	if e.Mode == deviation.ModeCurrent && (e.Kind == KindZoneField || e.Kind == KindSubSystemField) &&
		models.IsReadOnlyInCurrent(e.Path) {
		return Result{}, fmt.Errorf("%w: %s", ErrReadOnly, e.Path)
	}

	next := state.Clone()

	var created string
	switch e.Kind {
	case KindZoneAdd:
		e.ZoneID = a.newID()
		created = e.ZoneID
	case KindSubSystemAdd:
		zone := next.Baseline.FindZone(e.ZoneID)
		if zone == nil {
			return Result{}, fmt.Errorf("%w: %s", ErrZoneNotFound, e.ZoneID)
		}
		if !models.SubSystemAllowed(zone.Data.Design, e.SubSystemType) {
			return Result{}, fmt.Errorf("%w: %s in %s zone", ErrSubSystemNotAllowed, e.SubSystemType, zone.Data.Design)
		}
		e.SubSystemID = a.newID()
		created = e.SubSystemID
	}

	targets, err := targetsFor(&next, r.scope, e)
	if err != nil {
		return Result{}, err
	}

	touched := 0
	for _, t := range targets {
		if err := r.apply(t.snap, e); err != nil {
			if !t.primary && (errors.Is(err, ErrZoneNotFound) || errors.Is(err, ErrSubSystemNotFound)) {
				continue
			}
			return Result{}, err
		}
		touched++
	}

	res := Result{State: next, Scope: r.scope, CreatedID: created, Touched: touched}
	if e.Mode == deviation.ModeCurrent {
		res.Derived = a.derive(&next, e)
		res.State = next
	}
	return res, nil
}

func checkMode(scope Scope, mode deviation.Mode) error {
	switch scope {
	case ScopeLocal, ScopeWhitelist:
		if !mode.Valid() {
			return fmt.Errorf("%w: mode %q", ErrInvalidEdit, mode)
		}
	case ScopeReading:
		if mode == deviation.ModeBaseline {
			return fmt.Errorf("%w: field exists only on readings", ErrInvalidEdit)
		}
	}
	return nil
}

func targetsFor(s *State, scope Scope, e Edit) ([]target, error) {
	active := func() (*models.ProcessData, error) {
		if s.Active < 0 || s.Active >= len(s.Historical) {
			return nil, ErrNoActiveReading
		}
		return &s.Historical[s.Active], nil
	}
	everyone := func() []target {
		out := []target{{snap: &s.Baseline, primary: true}}
		for i := range s.Historical {
			out = append(out, target{snap: &s.Historical[i]})
		}
		return out
	}

	switch scope {
	case ScopeBroadcast, ScopeShared:
		return everyone(), nil
	case ScopeReading:
		p, err := active()
		if err != nil {
			return nil, err
		}
		return []target{{snap: p, primary: true}}, nil
	}

	if e.Mode == deviation.ModeCurrent {
		p, err := active()
		if err != nil {
			return nil, err
		}
		return []target{{snap: p, primary: true}}, nil
	}
	if scope == ScopeWhitelist && models.IsConstantField(e.Path) {
		return everyone(), nil
	}
	return []target{{snap: &s.Baseline, primary: true}}, nil
}

// derive пересчитывает воздуховод активного замера после правки его поля.
func (a *Applier) derive(s *State, e Edit) *derive.Update {
	if a.tracker == nil || s.Active < 0 || s.Active >= len(s.Historical) {
		return nil
	}
	duct, field, ok := models.SplitDuctPath(e.Path)
	if !ok {
		return nil
	}

	reading := &s.Historical[s.Active]
	zone := reading.FindZone(e.ZoneID)
	if zone == nil {
		return nil
	}

	var target *models.DuctworkData
	key := derive.Key{ZoneID: e.ZoneID, Duct: duct}
	switch {
	case e.Kind == KindZoneField && duct == "supply":
		target = &zone.Data.Supply
	case e.Kind == KindZoneField && duct == "exhaust":
		target = &zone.Data.Exhaust
	case e.Kind == KindSubSystemField && duct == "airSystem":
		i := zone.SubSystemIndex(e.SubSystemID)
		if i < 0 || zone.SubSystems[i].AirSupplyHouse == nil {
			return nil
		}
		target = &zone.SubSystems[i].AirSupplyHouse.AirSystem.DuctworkData
		key.SubSystemID = e.SubSystemID
	default:
		return nil
	}

	upd, ok := derive.Recompute(*target, a.tracker.Observe(key, field))
	if !ok {
		return nil
	}
	switch upd.Field {
	case models.DuctAirflow:
		target.Airflow.Value = upd.Value
	case models.DuctVelocity:
		target.Velocity.Value = upd.Value
	}
	return &upd
}

// ============================================================
// Validation
// ============================================================

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidEdit}, args...)...)
}

func needZone(e Edit) error {
	if e.ZoneID == "" {
		return invalid("zoneId is required")
	}
	return nil
}

func needZonePath(e Edit) error {
	if err := needZone(e); err != nil {
		return err
	}
	if e.Path == "" {
		return invalid("path is required")
	}
	return nil
}

func needSubSystem(e Edit) error {
	if err := needZone(e); err != nil {
		return err
	}
	if e.SubSystemID == "" {
		return invalid("subSystemId is required")
	}
	return nil
}

func needSubSystemPath(e Edit) error {
	if err := needSubSystem(e); err != nil {
		return err
	}
	if e.Path == "" {
		return invalid("path is required")
	}
	return nil
}

func needDesign(e Edit) error {
	if err := needZone(e); err != nil {
		return err
	}
	if !e.Design.Valid() {
		return invalid("unknown zone design %q", e.Design)
	}
	return nil
}

func needConfirmedZone(e Edit) error {
	if err := needZone(e); err != nil {
		return err
	}
	if !e.Confirm {
		return ErrConfirmationRequired
	}
	return nil
}

func needSubSystemType(e Edit) error {
	if err := needZone(e); err != nil {
		return err
	}
	if !e.SubSystemType.Valid() {
		return invalid("unknown sub-system type %q", e.SubSystemType)
	}
	return nil
}

func needCustomerField(e Edit) error {
	switch e.Field {
	case "name", "location", "contactPerson":
		return nil
	}
	return invalid("unknown customer field %q", e.Field)
}

func needProductSize(e Edit) error {
	if !models.ProductSize(e.Value).Valid() {
		return invalid("unknown product size %q", e.Value)
	}
	return nil
}

// ============================================================
// Appliers
// ============================================================

func zoneOf(p *models.ProcessData, id string) (*models.Zone, error) {
	z := p.FindZone(id)
	if z == nil {
		return nil, fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	return z, nil
}

func subSystemOf(p *models.ProcessData, zoneID, id string) (*models.SubSystem, error) {
	z, err := zoneOf(p, zoneID)
	if err != nil {
		return nil, err
	}
	i := z.SubSystemIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSubSystemNotFound, id)
	}
	return &z.SubSystems[i], nil
}

func pathError(err error) error {
	if errors.Is(err, models.ErrUnknownPath) {
		return fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}
	return err
}

func applyZoneField(p *models.ProcessData, e Edit) error {
	z, err := zoneOf(p, e.ZoneID)
	if err != nil {
		return err
	}
	return pathError(z.Data.SetParam(e.Path, e.Value))
}

func applySubSystemField(p *models.ProcessData, e Edit) error {
	ss, err := subSystemOf(p, e.ZoneID, e.SubSystemID)
	if err != nil {
		return err
	}
	return pathError(ss.SetParam(e.Path, e.Value))
}

func applyZoneName(p *models.ProcessData, e Edit) error {
	z, err := zoneOf(p, e.ZoneID)
	if err != nil {
		return err
	}
	z.Name = e.Value
	return nil
}

func applyZoneDesign(p *models.ProcessData, e Edit) error {
	z, err := zoneOf(p, e.ZoneID)
	if err != nil {
		return err
	}
	z.Data.Design = e.Design
	z.SubSystems = []models.SubSystem{}
	return nil
}

func applyZoneAdd(p *models.ProcessData, e Edit) error {
	z := models.NewZone(e.ZoneID)
	if e.Name != "" {
		z.Name = e.Name
	}
	p.Zones = append(p.Zones, z)
	return nil
}

func applyZoneRemove(p *models.ProcessData, e Edit) error {
	i := p.ZoneIndex(e.ZoneID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, e.ZoneID)
	}
	p.Zones = append(p.Zones[:i], p.Zones[i+1:]...)
	return nil
}

func applySubSystemAdd(p *models.ProcessData, e Edit) error {
	z, err := zoneOf(p, e.ZoneID)
	if err != nil {
		return err
	}
	name := e.Name
	if name == "" {
		name = e.SubSystemType.Label()
	}
	ss, err := models.NewSubSystem(e.SubSystemID, e.SubSystemType, name)
	if err != nil {
		return invalid("%v", err)
	}
	z.SubSystems = append(z.SubSystems, ss)
	return nil
}

func applySubSystemRemove(p *models.ProcessData, e Edit) error {
	z, err := zoneOf(p, e.ZoneID)
	if err != nil {
		return err
	}
	i := z.SubSystemIndex(e.SubSystemID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSubSystemNotFound, e.SubSystemID)
	}
	z.SubSystems = append(z.SubSystems[:i], z.SubSystems[i+1:]...)
	return nil
}

func applySubSystemName(p *models.ProcessData, e Edit) error {
	ss, err := subSystemOf(p, e.ZoneID, e.SubSystemID)
	if err != nil {
		return err
	}
	ss.Name = e.Value
	return nil
}

func applyCustomerInfo(p *models.ProcessData, e Edit) error {
	switch e.Field {
	case "name":
		p.CustomerInfo.Name.Value = e.Value
	case "location":
		p.CustomerInfo.Location.Value = e.Value
	case "contactPerson":
		p.CustomerInfo.ContactPerson.Value = e.Value
	}
	return nil
}

func applyConveyorSpeed(p *models.ProcessData, e Edit) error {
	p.ConveyorSpeed.Value = e.Value
	return nil
}

func applyProductSize(p *models.ProcessData, e Edit) error {
	p.ProductSize = models.ProductSize(e.Value)
	return nil
}

func applyCollectionDate(p *models.ProcessData, e Edit) error {
	p.CollectionDate.Value = e.Value
	return nil
}

func setOptional(slot **models.Parameter, value string) {
	if *slot == nil {
		*slot = models.NewParam("")
	}
	(*slot).Value = value
}

func applyTimeOfDay(p *models.ProcessData, e Edit) error {
	setOptional(&p.TimeOfDay, e.Value)
	return nil
}

func applyOutsideTemperature(p *models.ProcessData, e Edit) error {
	setOptional(&p.OutsideTemperature, e.Value)
	return nil
}

func applyOutsideRelativeHumidity(p *models.ProcessData, e Edit) error {
	setOptional(&p.OutsideRelativeHumidity, e.Value)
	return nil
}
