// Package pesindex decodes the PesTrie binary index format into an
// in-memory Index: the pre-order/tree tables the query engine needs plus
// the segindex.SegmentIndex built from the file's rectangle, vertical,
// horizontal and point records.
package pesindex

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pestrie/pestrie/internal/segindex"
	"github.com/pestrie/pestrie/internal/storage"
	"github.com/pestrie/pestrie/pkg/collections"
	"github.com/pestrie/pestrie/pkg/compression"
	apperrors "github.com/pestrie/pestrie/pkg/errors"
	"github.com/pestrie/pestrie/pkg/utils"
)

// Type distinguishes the two binary index variants: a points-to matrix
// (pointer/object alias queries) or a side-effect matrix (mod/ref variable
// and conflict queries).
type Type int

const (
	// Unknown marks an index whose magic bytes were not recognized.
	Unknown Type = iota
	// PT is the points-to matrix, identified by the "PES1" magic.
	PT
	// SE is the side-effect matrix, identified by the "SES1" magic.
	SE
)

func (t Type) String() string {
	switch t {
	case PT:
		return "pt"
	case SE:
		return "se"
	default:
		return "unknown"
	}
}

var magicPT = [4]byte{'P', 'E', 'S', '1'}
var magicSE = [4]byte{'S', 'E', 'S', '1'}

// Stats summarizes an Index, reported by the driver's --profile output.
type Stats struct {
	Type                     Type
	Trees                    int32
	Nodes                    int32 // vertexNum - 1, the original's reported node count
	MaxPointerEquivalenceSet int32
	LoadDuration             time.Duration
}

// Index holds the decoded tables and segment index for one PesTrie file.
// It is built once by Load and is read-only for the remainder of the
// process's life (spec's single-threaded, load-then-query lifecycle).
type Index struct {
	Type Type

	N int32 // number of pointers
	M int32 // number of objects
	VertexNum int32 // pre-order label space, already +1 over the file's raw field

	NTrees       int32
	NEs          int32 // number of pointer-equivalence-set groups (largest label + 1)
	MaxStorePrev int32 // only meaningful for SE indexes

	PreV       []int32 // length N+M; preV[i] for pointer i, preV[N+j] for object j
	Tree       []int32 // length N+M; -1 if the entity has no tree assignment
	ObjRank    []int32 // length NTrees+1 (last slot is the vertexNum sentinel)
	ObjsInTree []int32 // length NTrees
	PrevToTree []int32 // length VertexNum, valid at root pre-order labels

	ES2Pointers [][]int32 // length VertexNum; pointers sharing pre-order label i

	// IsRoot reports, for a pre-order label v < VertexNum, whether v is the
	// label of some tree's root object. Kept (not transient, unlike the
	// original's rootPrevs array which is freed after load) because
	// ListPointsTo needs it at query time to recognize when an index
	// figure's shape endpoint names a tree root.
	IsRoot *collections.Bitset

	Seg *segindex.SegmentIndex

	loadDuration time.Duration
}

// Stats returns summary statistics about the loaded index.
func (idx *Index) Stats() Stats {
	return Stats{
		Type:                     idx.Type,
		Trees:                    idx.NTrees,
		Nodes:                    idx.VertexNum - 1,
		MaxPointerEquivalenceSet: idx.NEs,
		LoadDuration:             idx.loadDuration,
	}
}

// Load fetches the index file identified by key from st and decodes it.
func Load(ctx context.Context, st storage.Storage, key string) (*Index, error) {
	rc, err := st.Download(ctx, key)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIndexOpen, "cannot open index file", err)
	}
	defer rc.Close()
	return LoadFromReader(rc)
}

// LoadFromReader decodes an index from raw bytes, transparently
// decompressing a gzip- or zstd-compressed stream first.
func LoadFromReader(r io.Reader) (*Index, error) {
	timer := utils.NewTimer("index_load")

	var raw, data []byte
	var idx *Index

	_, err := timer.TimeFuncWithError("read", func() (err error) {
		raw, err = io.ReadAll(r)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeIndexOpen, "cannot read index file", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, err = timer.TimeFuncWithError("decompress", func() (err error) {
		data, err = decompressIfNeeded(raw)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeIndexFormat, "cannot decompress index file", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, err = timer.TimeFuncWithError("decode", func() (err error) {
		idx, err = decode(bytes.NewReader(data))
		return err
	})
	if err != nil {
		return nil, err
	}

	idx.loadDuration = timer.TotalDuration()
	return idx, nil
}

// decompressIfNeeded returns data unchanged when it already starts with a
// recognized PesTrie magic; otherwise it assumes a compressed stream and
// auto-detects gzip vs zstd from the magic bytes.
func decompressIfNeeded(data []byte) ([]byte, error) {
	if len(data) >= 4 && (bytes.Equal(data[:4], magicPT[:]) || bytes.Equal(data[:4], magicSE[:])) {
		return data, nil
	}
	return compression.AutoDecompress(data)
}

func decode(r io.Reader) (*Index, error) {
	var magic [4]byte
	if err := readFull(r, magic[:]); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated index file header", err)
	}

	var typ Type
	switch magic {
	case magicPT:
		typ = PT
	case magicSE:
		typ = SE
	default:
		return nil, apperrors.Wrap(apperrors.CodeIndexFormat, "invalid PesTrie index file", fmt.Errorf("unrecognized magic %q", magic))
	}

	header := make([]int32, 7)
	if err := readInts(r, header); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated index file header", err)
	}
	n, m, vertexNum, nRects, nVerticals, nHorizontals, nPoints := header[0], header[1], header[2], header[3], header[4], header[5], header[6]
	vertexNum++

	idx := &Index{
		Type:        typ,
		N:           n,
		M:           m,
		VertexNum:   vertexNum,
		PreV:        make([]int32, n+m),
		Tree:        make([]int32, n+m),
		ES2Pointers: make([][]int32, vertexNum),
		Seg:         segindex.New(vertexNum),
	}

	if err := readInts(r, idx.PreV); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated preV block", err)
	}

	if err := idx.buildTreeTables(); err != nil {
		return nil, err
	}

	if err := idx.decodeShapes(r, nRects, nVerticals, nHorizontals, nPoints); err != nil {
		return nil, err
	}

	idx.Seg.CoalesceAll()

	return idx, nil
}

// buildTreeTables rebuilds the object-to-tree permutation and assigns every
// pointer its tree code, mirroring the original loader's two-pass
// construction exactly, including the rightmost-match tie-break rule.
func (idx *Index) buildTreeTables() error {
	n, m, vertexNum := idx.N, idx.M, idx.VertexNum

	rootPrevs := make([]int32, vertexNum)
	idx.PrevToTree = make([]int32, vertexNum)
	objRank := make([]int32, 0, m+1)

	for i := int32(0); i < m; i++ {
		v := idx.PreV[n+i]
		if v == -1 {
			continue
		}
		if rootPrevs[v] == 0 {
			objRank = append(objRank, v)
		}
		rootPrevs[v]++
	}

	sort.Slice(objRank, func(i, j int) bool { return objRank[i] < objRank[j] })
	idx.NTrees = int32(len(objRank))
	idx.ObjsInTree = make([]int32, idx.NTrees)
	idx.IsRoot = collections.NewBitset(int(vertexNum))
	for i, v := range objRank {
		idx.PrevToTree[v] = int32(i)
		idx.ObjsInTree[i] = rootPrevs[v]
		idx.IsRoot.Set(int(v))
	}

	// Sentinel so obj_rank[tr+1] is always valid for the last tree too.
	objRank = append(objRank, vertexNum)
	idx.ObjRank = objRank

	if idx.Type == SE {
		idx.MaxStorePrev = objRank[m/2]
	}

	idx.NEs = 0
	for i := int32(0); i < n; i++ {
		preI := idx.PreV[i]
		if preI > idx.NEs {
			idx.NEs = preI
		}
		if preI == -1 {
			idx.Tree[i] = -1
			continue
		}

		s, e := int32(0), idx.NTrees
		for e-s > 1 {
			mid := (s + e) / 2
			if objRank[mid] <= preI {
				s = mid
			} else {
				e = mid
			}
		}
		idx.Tree[i] = s
		idx.ES2Pointers[preI] = append(idx.ES2Pointers[preI], i)
	}
	idx.NEs++

	// Objects are roots of the trees they were merged into (or -1 if they
	// have no pre-order label at all). The original C implementation
	// leaves these entries uninitialized; we derive them explicitly so
	// IsAlias/ListAliases see a defined tree code for every object index.
	for i := int32(0); i < m; i++ {
		v := idx.PreV[n+i]
		if v == -1 {
			idx.Tree[n+i] = -1
			continue
		}
		idx.Tree[n+i] = idx.PrevToTree[v]
	}

	return nil
}

// decodeShapes reads the rectangle, vertical, horizontal and point-group
// blocks, inserting each into idx.Seg. Scratch buffers are borrowed from
// collections.Int32SlicePool rather than freshly allocated per block, the
// same reuse-across-records strategy the original applies to its single
// `labels` scratch buffer.
func (idx *Index) decodeShapes(r io.Reader, nRects, nVerticals, nHorizontals, nPoints int32) error {
	rectBuf, putRect, err := readIntsPooled(r, 4*nRects)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated rectangle block", err)
	}
	for i, k := int32(0), int32(0); i < nRects; i, k = i+1, k+4 {
		x1, y1, x2, y2 := rectBuf[k], rectBuf[k+1], rectBuf[k+2], rectBuf[k+3]
		segindex.InsertHorizontal(idx.Seg, x1, x2, y1, y2)
	}
	putRect()

	vertBuf, putVert, err := readIntsPooled(r, 3*nVerticals)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated vertical-line block", err)
	}
	for i, k := int32(0), int32(0); i < nVerticals; i, k = i+1, k+3 {
		y1, x, y2 := vertBuf[k], vertBuf[k+1], vertBuf[k+2]
		segindex.InsertVertical(idx.Seg, x, y1, y2)
	}
	putVert()

	horizBuf, putHoriz, err := readIntsPooled(r, 3*nHorizontals)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated horizontal-line block", err)
	}
	for i, k := int32(0), int32(0); i < nHorizontals; i, k = i+1, k+3 {
		y1, x, y2 := horizBuf[k], horizBuf[k+1], horizBuf[k+2]
		segindex.InsertVertical(idx.Seg, x, y1, y2)
	}
	putHoriz()

	remaining := nPoints
	head := make([]int32, 2)
	for remaining > 0 {
		if err := readInts(r, head); err != nil {
			return apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated point-group header", err)
		}
		x, count := head[0], head[1]
		group, putGroup, err := readIntsPooled(r, count)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeIndexTruncation, "truncated point-group body", err)
		}
		remaining -= count
		for _, y := range group {
			segindex.InsertPoint(idx.Seg, x, y)
		}
		putGroup()
	}

	return nil
}

// readIntsPooled borrows a []int32 of length n from collections.Int32SlicePool,
// fills it from r, and returns a release function the caller must invoke once
// done reading the result.
func readIntsPooled(r io.Reader, n int32) ([]int32, func(), error) {
	ptr := collections.GetInt32Slice()
	buf := *ptr
	if cap(buf) < int(n) {
		buf = make([]int32, n)
	} else {
		buf = buf[:n]
	}
	*ptr = buf

	if err := readInts(r, buf); err != nil {
		collections.PutInt32Slice(ptr)
		return nil, func() {}, err
	}
	return buf, func() { collections.PutInt32Slice(ptr) }, nil
}

func readInts(r io.Reader, out []int32) error {
	if len(out) == 0 {
		return nil
	}
	return binary.Read(r, binary.NativeEndian, out)
}

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}
