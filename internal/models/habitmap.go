// ABOUTME: Habit name to id lookup used to resolve long-form records.
// ABOUTME: Supports the fixed MeshOS table and a map derived from loaded habits.
package models

import (
	"fmt"
	"sort"
)

// MappingMode selects where the name to id lookup comes from.
type MappingMode string

const (
	// MappingDerived builds the lookup from the habit definitions of the current run.
	MappingDerived MappingMode = "derived"
	// MappingStatic uses the fixed MeshOS table regardless of habit file order.
	MappingStatic MappingMode = "static"
)

// IsValidMappingMode checks if a string names a supported mapping mode.
func IsValidMappingMode(s string) bool {
	return s == string(MappingDerived) || s == string(MappingStatic)
}

// HabitMap resolves habit names to ids.
type HabitMap map[string]int64

// StaticHabitMap returns a fresh copy of the fixed MeshOS habit table.
func StaticHabitMap() HabitMap {
	return HabitMap{
		"Vaping":          1,
		"Quit Valorant":   2,
		"Walk":            3,
		"Wake Up Early":   4,
		"No Pot":          5,
		"No Energy Drink": 6,
		"Coding":          7,
		"Shower":          8,
		"University":      9,
		"Gym":             10,
	}
}

// DeriveHabitMap builds a lookup from assigned habit ids.
// Duplicate names are an error since they would make ids ambiguous.
func DeriveHabitMap(habits []HabitDefinition) (HabitMap, error) {
	m := make(HabitMap, len(habits))
	for _, h := range habits {
		if prev, ok := m[h.Name]; ok {
			return nil, fmt.Errorf("duplicate habit name %q (ids %d and %d)", h.Name, prev, h.ID)
		}
		m[h.Name] = h.ID
	}
	return m, nil
}

// Lookup returns the id for name and whether it was found.
func (m HabitMap) Lookup(name string) (int64, bool) {
	id, ok := m[name]
	return id, ok
}

// Names returns the mapped names sorted by id.
func (m HabitMap) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return m[names[i]] < m[names[j]] })
	return names
}
