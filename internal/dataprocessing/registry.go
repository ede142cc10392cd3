package dataprocessing

import (
	"fmt"
	"time"

	"labpulse/pkg/contracts/domain"
)

// Reading is one timestamped measurement owned by an Entity
type Reading struct {
	Timestamp time.Time
	Value     float64
}

// Entity is a named source of readings, such as a building
type Entity struct {
	Name     string
	Unit     string
	Readings []Reading
}

// Total sums the entity's readings
func (e *Entity) Total() float64 {
	var total float64
	for _, r := range e.Readings {
		total += r.Value
	}
	return total
}

// Report renders the one-line consumption report for the entity
func (e *Entity) Report() string {
	return fmt.Sprintf("Building %s: Total consumption %.2f %s", e.Name, e.Total(), e.Unit)
}

// EntityRegistry holds entities in the order they were first seen
type EntityRegistry struct {
	entities map[string]*Entity
	order    []string
}

// BuildRegistry projects table rows onto entities. Rows lacking an entity
// tag, a timestamp or a numeric value are not assigned to any entity.
func BuildRegistry(table *domain.Table, entityColumn, valueColumn, unit string) *EntityRegistry {
	reg := &EntityRegistry{entities: make(map[string]*Entity)}

	for _, rec := range table.Records {
		name, ok := table.Tag(rec, entityColumn)
		if !ok || !rec.Timestamp.Valid {
			continue
		}
		v, ok := table.Value(rec, valueColumn)
		if !ok {
			continue
		}

		e, exists := reg.entities[name]
		if !exists {
			e = &Entity{Name: name, Unit: unit}
			reg.entities[name] = e
			reg.order = append(reg.order, name)
		}
		e.Readings = append(e.Readings, Reading{Timestamp: rec.Timestamp.Time, Value: v})
	}

	return reg
}

// Get returns the named entity
func (r *EntityRegistry) Get(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Names returns entity names in first-seen order
func (r *EntityRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entities returns the entities in first-seen order
func (r *EntityRegistry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entities[name])
	}
	return out
}

// Len returns the number of entities
func (r *EntityRegistry) Len() int {
	return len(r.order)
}

// Reports returns Report for every entity in first-seen order
func (r *EntityRegistry) Reports() []string {
	out := make([]string, 0, len(r.order))
	for _, e := range r.Entities() {
		out = append(out, e.Report())
	}
	return out
}
