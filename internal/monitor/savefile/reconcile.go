package savefile

import (
	"fmt"

	"process-monitor/internal/monitor/models"
)

// ============================================================
// Zone drift reconciliation
// ============================================================

type Action string

const (
	ActionDropped    Action = "dropped"
	ActionInserted   Action = "inserted"
	ActionReordered  Action = "reordered"
	ActionRenamed    Action = "renamed"
	ActionRedesigned Action = "redesigned"
	ActionReplaced   Action = "replaced"
)

// Change - одно исправление замера при загрузке.
type Change struct {
	Reading     int    `json:"reading" yaml:"reading"`
	ZoneID      string `json:"zoneId" yaml:"zoneId"`
	SubSystemID string `json:"subSystemId,omitempty" yaml:"subSystemId,omitempty"`
	Action      Action `json:"action" yaml:"action"`
}

func (c Change) String() string {
	if c.SubSystemID != "" {
		return fmt.Sprintf("reading %d: zone %s sub-system %s %s", c.Reading, c.ZoneID, c.SubSystemID, c.Action)
	}
	return fmt.Sprintf("reading %d: zone %s %s", c.Reading, c.ZoneID, c.Action)
}

// Reconciliation - отчёт о приведении замеров к структуре базы.
type Reconciliation struct {
	Changes []Change `json:"changes" yaml:"changes"`
}

func (r Reconciliation) Empty() bool {
	return len(r.Changes) == 0
}

func (r *Reconciliation) add(reading int, zoneID, subID string, action Action) {
	r.Changes = append(r.Changes, Change{Reading: reading, ZoneID: zoneID, SubSystemID: subID, Action: action})
}

// Reconcile приводит каждый замер к набору и порядку зон и подсистем базы.
// Зоны соединяются по id; недостающие копируются из базы, лишние удаляются.
func Reconcile(baseline models.ProcessData, readings []models.ProcessData) ([]models.ProcessData, Reconciliation) {
	var rec Reconciliation
	out := make([]models.ProcessData, 0, len(readings))

	for i, reading := range readings {
		r := reading.Clone()
		r.Zones = reconcileZones(i, baseline.Zones, reading.Zones, &rec)
		out = append(out, r)
	}
	return out, rec
}

func reconcileZones(reading int, base, current []models.Zone, rec *Reconciliation) []models.Zone {
	byID := make(map[string]models.Zone, len(current))
	for _, z := range current {
		if _, dup := byID[z.ID]; !dup {
			byID[z.ID] = z
		}
	}
	inBase := make(map[string]bool, len(base))
	for _, z := range base {
		inBase[z.ID] = true
	}

	for _, z := range current {
		if !inBase[z.ID] {
			rec.add(reading, z.ID, "", ActionDropped)
		}
	}
	if !sameOrder(zoneIDs(base), zoneIDs(current), inBase, byID) {
		rec.add(reading, "", "", ActionReordered)
	}

	zones := make([]models.Zone, 0, len(base))
	for _, bz := range base {
		rz, ok := byID[bz.ID]
		if !ok {
			rec.add(reading, bz.ID, "", ActionInserted)
			zones = append(zones, bz.Clone())
			continue
		}

		z := rz.Clone()
		if z.Name != bz.Name {
			rec.add(reading, bz.ID, "", ActionRenamed)
			z.Name = bz.Name
		}
		if z.Data.Design != bz.Data.Design {
			rec.add(reading, bz.ID, "", ActionRedesigned)
			z.Data.Design = bz.Data.Design
		}
		z.SubSystems = reconcileSubSystems(reading, bz, rz.SubSystems, rec)
		zones = append(zones, z)
	}
	return zones
}

func reconcileSubSystems(reading int, bz models.Zone, current []models.SubSystem, rec *Reconciliation) []models.SubSystem {
	byID := make(map[string]models.SubSystem, len(current))
	for _, ss := range current {
		if _, dup := byID[ss.ID]; !dup {
			byID[ss.ID] = ss
		}
	}
	inBase := make(map[string]bool, len(bz.SubSystems))
	for _, ss := range bz.SubSystems {
		inBase[ss.ID] = true
	}
	for _, ss := range current {
		if !inBase[ss.ID] {
			rec.add(reading, bz.ID, ss.ID, ActionDropped)
		}
	}

	out := make([]models.SubSystem, 0, len(bz.SubSystems))
	for _, bs := range bz.SubSystems {
		rs, ok := byID[bs.ID]
		switch {
		case !ok:
			rec.add(reading, bz.ID, bs.ID, ActionInserted)
			out = append(out, bs.Clone())
		case rs.Type != bs.Type:
			rec.add(reading, bz.ID, bs.ID, ActionReplaced)
			out = append(out, bs.Clone())
		default:
			ss := rs.Clone()
			if ss.Name != bs.Name {
				rec.add(reading, bz.ID, bs.ID, ActionRenamed)
				ss.Name = bs.Name
			}
			out = append(out, ss)
		}
	}
	return out
}

func zoneIDs(zones []models.Zone) []string {
	ids := make([]string, len(zones))
	for i, z := range zones {
		ids[i] = z.ID
	}
	return ids
}

// sameOrder сравнивает порядок общих для базы и замера зон.
func sameOrder(base, current []string, inBase map[string]bool, inCurrent map[string]models.Zone) bool {
	var a, b []string
	for _, id := range base {
		if _, ok := inCurrent[id]; ok {
			a = append(a, id)
		}
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		if inBase[id] && !seen[id] {
			seen[id] = true
			b = append(b, id)
		}
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
