// Package index describes the physical indexes the planner chooses among,
// the Catalog it reads them from, and the storage reader interface it
// consumes without implementing (spec.md §6 — storage engine and index
// searchers are external collaborators). Statistics reach the planner as
// a stats.Snapshot, not through this package.
package index

// Kind identifies the physical structure backing an index, which
// determines which plan operator variants the enumerator can emit against
// it (spec.md §4.5 steps 2-6).
type Kind int

const (
	BTree Kind = iota
	Bitmap
	FullText
	Spatial
	Vector
)

func (k Kind) String() string {
	switch k {
	case BTree:
		return "btree"
	case Bitmap:
		return "bitmap"
	case FullText:
		return "fulltext"
	case Spatial:
		return "spatial"
	case Vector:
		return "vector"
	default:
		return "unknown"
	}
}

// Descriptor describes one index available to the planner: its name, the
// ordered key fields it is sorted by, any additional stored (covering)
// fields, whether keys are unique, and its physical kind.
type Descriptor struct {
	Name         string
	RecordType   string
	KeyFields    []string
	StoredFields []string
	Unique       bool
	Kind         Kind
	// Reverse, when true, means the index's natural iteration order is
	// descending on its leading key field (mirrors a storage-layer option
	// to store an index "backwards" for reverse-sorted workloads).
	Reverse bool
}

// CoversFields reports whether every field in fields is present in either
// KeyFields or StoredFields — the condition for IndexOnlyScan eligibility
// (spec.md §4.5 step 2, Glossary "Covering index").
func (d Descriptor) CoversFields(fields []string) bool {
	covered := make(map[string]struct{}, len(d.KeyFields)+len(d.StoredFields))
	for _, f := range d.KeyFields {
		covered[f] = struct{}{}
	}
	for _, f := range d.StoredFields {
		covered[f] = struct{}{}
	}
	for _, f := range fields {
		if _, ok := covered[f]; !ok {
			return false
		}
	}
	return true
}

// Catalog exposes the indexes available for a record type. This is a thin
// consumed interface — the planner never creates, drops, or mutates
// indexes.
type Catalog interface {
	IndexesFor(recordType string) []Descriptor
}

// StaticCatalog is a Catalog backed by a fixed list, used by tests and by
// the demo CLI.
type StaticCatalog struct {
	Indexes map[string][]Descriptor
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{Indexes: make(map[string][]Descriptor)}
}

func (c *StaticCatalog) Add(d Descriptor) {
	c.Indexes[d.RecordType] = append(c.Indexes[d.RecordType], d)
}

func (c *StaticCatalog) IndexesFor(recordType string) []Descriptor {
	return c.Indexes[recordType]
}
