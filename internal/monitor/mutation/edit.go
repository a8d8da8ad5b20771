package mutation

import (
	"errors"

	"process-monitor/internal/monitor/deviation"
	"process-monitor/internal/monitor/models"
)

// ============================================================
// Edit kinds
// ============================================================

type Kind string

const (
	KindZoneField               Kind = "zone_field"
	KindSubSystemField          Kind = "subsystem_field"
	KindZoneName                Kind = "zone_name"
	KindZoneDesign              Kind = "zone_design"
	KindZoneAdd                 Kind = "zone_add"
	KindZoneRemove              Kind = "zone_remove"
	KindSubSystemAdd            Kind = "subsystem_add"
	KindSubSystemRemove         Kind = "subsystem_remove"
	KindSubSystemName           Kind = "subsystem_name"
	KindCustomerInfo            Kind = "customer_info"
	KindConveyorSpeed           Kind = "conveyor_speed"
	KindProductSize             Kind = "product_size"
	KindCollectionDate          Kind = "collection_date"
	KindTimeOfDay               Kind = "time_of_day"
	KindOutsideTemperature      Kind = "outside_temperature"
	KindOutsideRelativeHumidity Kind = "outside_relative_humidity"
)

// Scope определяет, какие снимки затрагивает правка.
type Scope int

const (
	// ScopeLocal - только редактируемый снимок: база или активный замер.
	ScopeLocal Scope = iota
	// ScopeWhitelist - как local, но правка базы постоянного поля уходит во все замеры.
	ScopeWhitelist
	// ScopeBroadcast - структурная правка: база и все замеры.
	ScopeBroadcast
	// ScopeShared - общие поля: база и все замеры.
	ScopeShared
	// ScopeReading - поле есть только у замеров.
	ScopeReading
)

func (s Scope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeWhitelist:
		return "whitelist"
	case ScopeBroadcast:
		return "broadcast"
	case ScopeShared:
		return "shared"
	case ScopeReading:
		return "reading"
	}
	return "unknown"
}

// Edit - одна логическая правка пользователя.
type Edit struct {
	Kind          Kind                 `json:"kind"`
	Mode          deviation.Mode       `json:"mode,omitempty"`
	ZoneID        string               `json:"zoneId,omitempty"`
	SubSystemID   string               `json:"subSystemId,omitempty"`
	Path          string               `json:"path,omitempty"`
	Field         string               `json:"field,omitempty"`
	Value         string               `json:"value"`
	Design        models.ZoneDesign    `json:"design,omitempty"`
	SubSystemType models.SubSystemType `json:"subSystemType,omitempty"`
	Name          string               `json:"name,omitempty"`
	Confirm       bool                 `json:"confirm,omitempty"`
}

var (
	ErrUnknownKind          = errors.New("unknown edit kind")
	ErrInvalidEdit          = errors.New("invalid edit")
	ErrReadOnly             = errors.New("field is read-only in current mode")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrZoneNotFound         = errors.New("zone not found")
	ErrSubSystemNotFound    = errors.New("sub-system not found")
	ErrNoActiveReading      = errors.New("no active reading")
	ErrSubSystemNotAllowed  = errors.New("sub-system type not available for zone design")
)
