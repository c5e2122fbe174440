package pesindex

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildIndexBytes assembles an index with the given magic: header + preV +
// the given rectangle, vertical, horizontal and point-group records (any of
// which may be empty), matching the layout decode() expects.
func buildIndexBytes(t *testing.T, typ [4]byte, n, m, vertexNum int32, preV []int32,
	rects []int32, verticals []int32, horizontals []int32, points [][2]int32) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(typ[:])

	nPoints := int32(0)
	for _, p := range points {
		nPoints += p[1]
	}

	header := []int32{n, m, vertexNum, int32(len(rects) / 4), int32(len(verticals) / 3), int32(len(horizontals) / 3), nPoints}
	writeInts(t, &buf, header)
	writeInts(t, &buf, preV)
	writeInts(t, &buf, rects)
	writeInts(t, &buf, verticals)
	writeInts(t, &buf, horizontals)

	for _, p := range points {
		x, count := p[0], p[1]
		writeInts(t, &buf, []int32{x, count})
		// The caller passes count as the group size; generate count
		// sequential y-values starting at x+1 for a deterministic fixture.
		ys := make([]int32, count)
		for i := range ys {
			ys[i] = x + 1 + int32(i)
		}
		writeInts(t, &buf, ys)
	}

	return buf.Bytes()
}

func writeInts(t *testing.T, buf *bytes.Buffer, vals []int32) {
	t.Helper()
	if err := binary.Write(buf, binary.NativeEndian, vals); err != nil {
		t.Fatalf("writeInts: %v", err)
	}
}

func TestLoadFromReader_MinimalPTIndex(t *testing.T) {
	// n=2 pointers, m=1 object, vertex_num (pre-increment) = 4.
	// preV: pointer0->0, pointer1->2, object0->1
	preV := []int32{0, 2, 1}
	data := buildIndexBytes(t, magicPT, 2, 1, 4, preV, nil, nil, nil, nil)

	idx, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if idx.Type != PT {
		t.Fatalf("Type = %v, want PT", idx.Type)
	}
	if idx.VertexNum != 5 {
		t.Fatalf("VertexNum = %d, want 5 (4+1)", idx.VertexNum)
	}
	if idx.NTrees != 1 {
		t.Fatalf("NTrees = %d, want 1", idx.NTrees)
	}
	if idx.Tree[0] != 0 || idx.Tree[1] != 0 {
		t.Fatalf("pointer tree codes = %v, want both 0", idx.Tree[:2])
	}
	if idx.Tree[2] != 0 {
		t.Fatalf("object tree code = %d, want 0", idx.Tree[2])
	}
}

func TestLoadFromReader_RejectsBadMagic(t *testing.T) {
	data := []byte("XXXX")
	_, err := LoadFromReader(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected an error for invalid magic")
	}
}

func TestLoadFromReader_TruncatedHeader(t *testing.T) {
	data := append([]byte{}, magicPT[:]...)
	data = append(data, 0, 0) // short header
	_, err := LoadFromReader(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected a truncation error")
	}
}

func TestLoadFromReader_UnassignedEntitiesGetTreeMinusOne(t *testing.T) {
	// pointer0 has no pre-order label at all.
	preV := []int32{-1, 0}
	data := buildIndexBytes(t, magicPT, 1, 1, 1, preV, nil, nil, nil, nil)

	idx, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if idx.Tree[0] != -1 {
		t.Fatalf("Tree[0] = %d, want -1", idx.Tree[0])
	}
}
