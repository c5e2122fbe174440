package query

import (
	"testing"

	"github.com/pestrie/pestrie/internal/pesindex"
	"github.com/pestrie/pestrie/internal/segindex"
	"github.com/pestrie/pestrie/pkg/collections"
)

// buildFixture constructs a small two-tree index by hand (bypassing the
// binary decoder) to exercise the query algorithms directly:
//
//	tree 0: root object0 at pre-order label 0; pointer0 at label 1
//	tree 1: root object1 at pre-order label 3; pointer1 at label 4, pointer2 at label 3
//	pointer0's figure is a single shape {3,3}, covering pointer2's and the
//	tree-1 root's shared label; column 3 holds only its mirror {1,1}.
func buildFixture() *pesindex.Index {
	const vertexNum = 6
	idx := &pesindex.Index{
		N:           3,
		M:           2,
		VertexNum:   vertexNum,
		NTrees:      2,
		ObjRank:     []int32{0, 3, vertexNum},
		ObjsInTree:  []int32{1, 1},
		PrevToTree:  make([]int32, vertexNum),
		PreV:        []int32{1, 4, 3, 0, 3},
		Tree:        []int32{0, 1, 1, 0, 1},
		ES2Pointers: make([][]int32, vertexNum),
		IsRoot:      collections.NewBitset(vertexNum),
		Seg:         segindex.New(vertexNum),
	}
	idx.PrevToTree[0] = 0
	idx.PrevToTree[3] = 1
	idx.IsRoot.Set(0)
	idx.IsRoot.Set(3)

	idx.ES2Pointers[1] = []int32{0} // pointer0
	idx.ES2Pointers[3] = []int32{2} // pointer2
	idx.ES2Pointers[4] = []int32{1} // pointer1

	segindex.InsertVertical(idx.Seg, 1, 3, 3) // pointer0's figure: a single point at label 3

	return idx
}

func TestIsAlias(t *testing.T) {
	idx := buildFixture()

	if IsAlias(idx, 0, 1) {
		t.Fatal("pointer0 and pointer1: figure does not cover label 4, want false")
	}
	if !IsAlias(idx, 0, 2) {
		t.Fatal("pointer0 and pointer2: figure covers label 3, want true")
	}
	if !IsAlias(idx, 3, 0) {
		t.Fatal("object0 and pointer0 share tree 0, want true")
	}
}

func TestIsAlias_UnassignedEntity(t *testing.T) {
	idx := buildFixture()
	idx.Tree = append(idx.Tree, -1)
	idx.PreV = append(idx.PreV, -1)
	if IsAlias(idx, 0, int32(len(idx.Tree)-1)) {
		t.Fatal("an entity with no tree assignment can never be an alias")
	}
}

func TestListPointsTo(t *testing.T) {
	idx := buildFixture()

	// pointer0: own tree (1 object) + figure endpoint 3, which is the
	// tree-1 root label, contributing tree 1's object count (1).
	if got := ListPointsTo(idx, 0); got != 2 {
		t.Fatalf("ListPointsTo(pointer0) = %d, want 2", got)
	}

	// pointer1: own tree only, no figure.
	if got := ListPointsTo(idx, 1); got != 1 {
		t.Fatalf("ListPointsTo(pointer1) = %d, want 1", got)
	}
}

func TestListPointsTo_UnassignedPointer(t *testing.T) {
	idx := buildFixture()
	idx.Tree = append(idx.Tree, -1)
	if got := ListPointsTo(idx, int32(len(idx.Tree)-1)); got != 0 {
		t.Fatalf("ListPointsTo(unassigned) = %d, want 0", got)
	}
}

func TestListAliases(t *testing.T) {
	idx := buildFixture()

	// pointer0: same-tree range [0,3) covers ES groups {1:pointer0}; its
	// figure covers label 3, adding ES group {3:pointer2}.
	if got := ListAliases(idx, 0, nil); got != 2 {
		t.Fatalf("ListAliases(pointer0) = %d, want 2", got)
	}
}

func TestListAliases_WithPlanScopedGroups(t *testing.T) {
	idx := buildFixture()

	es2baseptrs := make([][]int32, idx.VertexNum)
	es2baseptrs[1] = []int32{0}
	// pointer2 intentionally absent from the plan-scoped groups.

	if got := ListAliases(idx, 0, es2baseptrs); got != 1 {
		t.Fatalf("ListAliases(pointer0, planScoped) = %d, want 1", got)
	}
}

func TestListPointedTo(t *testing.T) {
	idx := buildFixture()
	// object0 = o=0 -> translated index n+0 = 3, same as the object0 index
	// used directly above.
	if got := ListPointedTo(idx, 0); got != ListAliases(idx, idx.N+0, nil) {
		t.Fatalf("ListPointedTo(0) = %d, want %d", got, ListAliases(idx, idx.N+0, nil))
	}
}

func TestListConflicts_RespectsMaxStorePrev(t *testing.T) {
	idx := buildFixture()

	// pointer0 has PreV=1, below a watermark of 2: ListConflicts delegates
	// to ListAliases.
	idx.MaxStorePrev = 2
	want := ListAliases(idx, 0, nil)
	if got := ListConflicts(idx, 0); got != want {
		t.Fatalf("ListConflicts(pointer0) = %d, want %d (delegates to ListAliases)", got, want)
	}

	// With the watermark at 1, pointer0's PreV (1) is no longer below it.
	idx.MaxStorePrev = 1
	if got := ListConflicts(idx, 0); got != 0 {
		t.Fatalf("ListConflicts at/above MaxStorePrev = %d, want 0", got)
	}
}
