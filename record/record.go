// Package record gives the planner a compile-time field descriptor table
// for a record type, replacing runtime reflection over struct tags
// (spec.md Design Notes §9, "Dynamic field access in statistics
// collection").
package record

// FieldDescriptor names one field of a record type and its semantic type
// (the type the predicate/statistics layers reason about — "string",
// "int64", "timestamp", "geo", "vector" — not the Go storage type).
type FieldDescriptor struct {
	Name         string
	SemanticType string
	Nullable     bool
}

// TypeDescriptor is the interface a record type implements so the planner
// can resolve field names and the type's persisted name without
// reflection. A generated or hand-written implementation backs each
// record type in an application built on this planner.
type TypeDescriptor interface {
	// PersistableType returns the stable name this type is stored under
	// (collection/table name).
	PersistableType() string
	// AllFields returns every field this type exposes to the planner.
	AllFields() []FieldDescriptor
	// FieldByName looks up a single field descriptor by name.
	FieldByName(name string) (FieldDescriptor, bool)
}

// StaticTypeDescriptor is a TypeDescriptor backed by a fixed field list,
// suitable for tests and for generated descriptor tables.
type StaticTypeDescriptor struct {
	Name   string
	Fields []FieldDescriptor
}

// NewStaticTypeDescriptor builds a StaticTypeDescriptor from a field list.
func NewStaticTypeDescriptor(name string, fields []FieldDescriptor) *StaticTypeDescriptor {
	return &StaticTypeDescriptor{Name: name, Fields: fields}
}

func (d *StaticTypeDescriptor) PersistableType() string { return d.Name }

func (d *StaticTypeDescriptor) AllFields() []FieldDescriptor { return d.Fields }

func (d *StaticTypeDescriptor) FieldByName(name string) (FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}
