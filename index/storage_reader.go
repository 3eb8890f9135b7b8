package index

import "context"

// StorageReader is the ordered key-value range/get API the chosen plan is
// eventually executed against. The planner core never calls it — it only
// needs the Descriptor catalog above to reason about access paths — but
// the interface is declared here because spec.md §6 names it as a
// consumed external collaborator whose shape constrains what an
// IndexScan/IndexSeek operator can claim to do (ordered range iteration,
// not arbitrary lookup).
type StorageReader interface {
	// Get returns the raw record bytes stored under key.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// Range iterates keys in [start, end) in the store's natural order,
	// calling fn for each until it returns false or the range is
	// exhausted.
	Range(ctx context.Context, start, end []byte, reverse bool, fn func(key, value []byte) bool) error
}
