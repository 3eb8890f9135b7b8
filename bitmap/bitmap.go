// Package bitmap implements the compressed bitmap core the enumerator's
// bitmap-index planning step drives: per-value bitmaps over one index
// column, combined with and/or/not, and a cardinality check deciding
// whether a column is bitmap-suitable at all (spec.md §4.8).
package bitmap

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap wraps a roaring.Bitmap, giving the planner core the and/or/
// not/xor/andNot vocabulary spec.md §4.8 names without exposing roaring's
// full API surface.
type Bitmap struct {
	bits *roaring.Bitmap
}

// New returns an empty bitmap.
func New() *Bitmap {
	return &Bitmap{bits: roaring.New()}
}

// FromRowIDs builds a bitmap containing exactly the given row IDs.
func FromRowIDs(rowIDs []uint32) *Bitmap {
	return &Bitmap{bits: roaring.BitmapOf(rowIDs...)}
}

// Add sets bit rowID.
func (b *Bitmap) Add(rowID uint32) { b.bits.Add(rowID) }

// Cardinality returns the number of set bits.
func (b *Bitmap) Cardinality() uint64 { return b.bits.GetCardinality() }

// And returns a new bitmap containing bits set in both b and other.
func (b *Bitmap) And(other *Bitmap) *Bitmap {
	return &Bitmap{bits: roaring.And(b.bits, other.bits)}
}

// Or returns a new bitmap containing bits set in either b or other.
func (b *Bitmap) Or(other *Bitmap) *Bitmap {
	return &Bitmap{bits: roaring.Or(b.bits, other.bits)}
}

// Xor returns a new bitmap containing bits set in exactly one of b, other.
func (b *Bitmap) Xor(other *Bitmap) *Bitmap {
	return &Bitmap{bits: roaring.Xor(b.bits, other.bits)}
}

// AndNot returns a new bitmap containing bits set in b but not other.
func (b *Bitmap) AndNot(other *Bitmap) *Bitmap {
	return &Bitmap{bits: roaring.AndNot(b.bits, other.bits)}
}

// Not returns the complement of b within [0, bitCount): every bit beyond
// bitCount in the underlying representation stays clear, satisfying
// spec.md §4.8's "Not must mask bits beyond bitCount in the last word".
func (b *Bitmap) Not(bitCount uint64) *Bitmap {
	flipped := b.bits.Clone()
	flipped.Flip(0, bitCount)
	return &Bitmap{bits: flipped}
}

// ToRowIDs materializes the set bits as a row ID slice, in ascending
// order.
func (b *Bitmap) ToRowIDs() []uint32 {
	return b.bits.ToArray()
}

// ColumnIndex is a per-value bitmap index over one column: one bitmap per
// distinct value, enabling equals/in/notEquals without a record fetch.
type ColumnIndex struct {
	rowCount uint64
	byValue  map[any]*Bitmap
}

// NewColumnIndex builds an empty per-value bitmap index for a column with
// rowCount total rows (needed by NotEquals/Not to mask correctly).
func NewColumnIndex(rowCount uint64) *ColumnIndex {
	return &ColumnIndex{rowCount: rowCount, byValue: make(map[any]*Bitmap)}
}

// Set records that rowID has the given value.
func (c *ColumnIndex) Set(value any, rowID uint32) {
	b, ok := c.byValue[value]
	if !ok {
		b = New()
		c.byValue[value] = b
	}
	b.Add(rowID)
}

// Equals returns the bitmap of rows with column == value.
func (c *ColumnIndex) Equals(value any) *Bitmap {
	if b, ok := c.byValue[value]; ok {
		return b
	}
	return New()
}

// In returns the bitmap of rows whose column value is any of values — a
// logical OR of each present value's bitmap (spec.md §4.8).
func (c *ColumnIndex) In(values []any) *Bitmap {
	result := New()
	for _, v := range values {
		result = result.Or(c.Equals(v))
	}
	return result
}

// NotEquals returns the bitmap of rows with column != value — the
// logical NOT of Equals(value) (spec.md §4.8).
func (c *ColumnIndex) NotEquals(value any) *Bitmap {
	return c.Equals(value).Not(c.rowCount)
}

// DistinctValues returns the number of distinct values tabulated.
func (c *ColumnIndex) DistinctValues() int {
	return len(c.byValue)
}

// DefaultMaxCardinality is the default distinct-value ceiling a column
// may have and still be considered bitmap-suitable (spec.md §4.8).
const DefaultMaxCardinality = 100

// IsSuitable reports whether a column with the given distinct-value
// count should get a bitmap index, per spec.md §4.8's cardinality
// analysis.
func IsSuitable(distinctValues int, maxCardinality int) bool {
	if maxCardinality <= 0 {
		maxCardinality = DefaultMaxCardinality
	}
	return distinctValues <= maxCardinality
}
