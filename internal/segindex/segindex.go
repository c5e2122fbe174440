// Package segindex indexes shapestore shapes by their owning column, and
// implements the three decode-time insertion primitives (point, vertical
// line, rectangle) that populate those columns from the binary index
// format described by the pesindex package.
package segindex

import "github.com/pestrie/pestrie/internal/shapestore"

// ColumnBucket holds the shapes anchored at one column of the grid, kept
// sorted and coalesced after Load finishes decoding.
type ColumnBucket struct {
	Shapes []*shapestore.Shape
}

// SegmentIndex is a column-indexed table of shape buckets, one slot per
// vertex in the PesTrie's pre-order numbering. A nil entry means the
// column owns no shapes.
type SegmentIndex struct {
	buckets []*ColumnBucket
}

// New allocates a SegmentIndex with vertexNum columns, all initially empty.
func New(vertexNum int32) *SegmentIndex {
	return &SegmentIndex{buckets: make([]*ColumnBucket, vertexNum)}
}

// Bucket returns the bucket at column x, or nil if the column owns no
// shapes.
func (si *SegmentIndex) Bucket(x int32) *ColumnBucket {
	return si.buckets[x]
}

// Len reports the number of columns in the index.
func (si *SegmentIndex) Len() int {
	return len(si.buckets)
}

func (si *SegmentIndex) bucketFor(x int32) *ColumnBucket {
	b := si.buckets[x]
	if b == nil {
		b = &ColumnBucket{}
		si.buckets[x] = b
	}
	return b
}

// InsertPoint records that columns x and y are mutually aliased at a single
// point: it appends a degenerate shape {y,y} to column x's bucket and {x,x}
// to column y's bucket.
func InsertPoint(si *SegmentIndex, x, y int32) {
	bx := si.bucketFor(x)
	bx.Shapes = append(bx.Shapes, shapestore.New(y, y))

	by := si.bucketFor(y)
	by.Shapes = append(by.Shapes, shapestore.New(x, x))
}

// InsertVertical records a single-column vertical line at column x spanning
// rows [y1, y2], plus its horizontal mirror: a degenerate shape {x,x},
// shared across columns y1..y2, recording the symmetric alias relation.
func InsertVertical(si *SegmentIndex, x, y1, y2 int32) {
	b := si.bucketFor(x)
	b.Shapes = append(b.Shapes, shapestore.New(y1, y2))

	mirror := shapestore.NewShared(x, x, y2-y1+1)
	for y := y1; y <= y2; y++ {
		bb := si.bucketFor(y)
		bb.Shapes = append(bb.Shapes, mirror)
	}
}

// InsertHorizontal records a rectangle spanning columns [x1, x2] and rows
// [y1, y2]: the rectangle itself is shared across every column in
// [x1, x2], and its mirror (the transposed rectangle) is shared across
// every column in [y1, y2].
func InsertHorizontal(si *SegmentIndex, x1, x2, y1, y2 int32) {
	rect := shapestore.NewShared(y1, y2, x2-x1+1)
	for x := x1; x <= x2; x++ {
		b := si.bucketFor(x)
		b.Shapes = append(b.Shapes, rect)
	}

	mirror := shapestore.NewShared(x1, x2, y2-y1+1)
	for y := y1; y <= y2; y++ {
		b := si.bucketFor(y)
		b.Shapes = append(b.Shapes, mirror)
	}
}

// CoalesceAll sorts and merges every non-empty bucket's shape list via
// shapestore.Coalesce. Must run once, after all inserts for the index have
// completed, before any query touches the index.
func (si *SegmentIndex) CoalesceAll() {
	for _, b := range si.buckets {
		if b != nil && len(b.Shapes) > 0 {
			b.Shapes = shapestore.Coalesce(b.Shapes)
		}
	}
}
