package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pestrie/pestrie/internal/pesindex"
	"github.com/pestrie/pestrie/internal/segindex"
	"github.com/pestrie/pestrie/pkg/collections"
	"github.com/pestrie/pestrie/pkg/utils"
)

// buildFixture mirrors internal/query's hand-built two-tree fixture: tree 0
// rooted at object0 (label 0) with pointer0 (label 1); tree 1 rooted at
// object1 (label 3) with pointer1 (label 4) and pointer2 (label 3).
// pointer0's index figure is a single point at label 3.
func buildFixture(typ pesindex.Type) *pesindex.Index {
	const vertexNum = 6
	idx := &pesindex.Index{
		Type:        typ,
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
	idx.ES2Pointers[1] = []int32{0}
	idx.ES2Pointers[3] = []int32{2}
	idx.ES2Pointers[4] = []int32{1}
	segindex.InsertVertical(idx.Seg, 1, 3, 3)
	return idx
}

func discardLogger() utils.Logger {
	return utils.NewDefaultLogger(utils.LevelError, os.Stderr)
}

func writePlan(t *testing.T, entries string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.txt")
	if err := os.WriteFile(path, []byte(entries), 0644); err != nil {
		t.Fatalf("writePlan: %v", err)
	}
	return path
}

func TestRunPlan_ListPointsTo(t *testing.T) {
	idx := buildFixture(pesindex.PT)
	plan := writePlan(t, "0 1\n")

	summary, err := Run(idx, Options{
		Type:     ListPointsTo,
		PlanFile: plan,
		Logger:   discardLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.QueriesRun != 2 {
		t.Fatalf("QueriesRun = %d, want 2", summary.QueriesRun)
	}
	// pointer0 -> 2, pointer1 -> 1
	if summary.Answer != 3 {
		t.Fatalf("Answer = %d, want 3", summary.Answer)
	}
}

func TestRunPlan_PrintAnswersJSON(t *testing.T) {
	idx := buildFixture(pesindex.PT)
	plan := writePlan(t, "0 1\n")

	summary, err := Run(idx, Options{
		Type:         ListPointsTo,
		PlanFile:     plan,
		PrintAnswers: true,
		Format:       "json",
		Logger:       discardLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Answer != 3 {
		t.Fatalf("Answer = %d, want 3", summary.Answer)
	}
}

func TestRunPlan_RejectsNonPlanModeQueryType(t *testing.T) {
	idx := buildFixture(pesindex.PT)
	plan := writePlan(t, "0 1\n")

	_, err := Run(idx, Options{
		Type:     ListPointedTo,
		PlanFile: plan,
		Logger:   discardLogger(),
	})
	if err == nil {
		t.Fatal("expected an error for a plan-incompatible query type")
	}
}

func TestRunPlan_MissingFile(t *testing.T) {
	idx := buildFixture(pesindex.PT)

	_, err := Run(idx, Options{
		Type:     ListPointsTo,
		PlanFile: filepath.Join(t.TempDir(), "does-not-exist.txt"),
		Logger:   discardLogger(),
	})
	if err == nil {
		t.Fatal("expected an error for a missing plan file")
	}
}

func TestRunPlan_SkipsOutOfRangeEntities(t *testing.T) {
	idx := buildFixture(pesindex.PT)
	// 99 has no PreV/Tree entry: out of range against VertexNum=6.
	plan := writePlan(t, "0 99\n")

	summary, err := Run(idx, Options{
		Type:     ListAliases,
		PlanFile: plan,
		Logger:   discardLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.QueriesRun != 2 {
		t.Fatalf("QueriesRun = %d, want 2", summary.QueriesRun)
	}
	if summary.OutOfRangeSkipped != 1 {
		t.Fatalf("OutOfRangeSkipped = %d, want 1", summary.OutOfRangeSkipped)
	}
}

func TestRunSimulation_PTIndexRejectsSEOnlyQuery(t *testing.T) {
	idx := buildFixture(pesindex.PT)

	_, err := Run(idx, Options{Type: ListAccVars, NQuery: 5, Logger: discardLogger()})
	if err == nil {
		t.Fatal("expected an error: ListAccVars is SE-only")
	}
}

func TestRunSimulation_SEIndexForcesNQueryToN(t *testing.T) {
	idx := buildFixture(pesindex.SE)

	summary, err := Run(idx, Options{Type: ListAccVars, NQuery: 999, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.QueriesRun != int(idx.N) {
		t.Fatalf("QueriesRun = %d, want idx.N = %d", summary.QueriesRun, idx.N)
	}
}

func TestRunSimulation_PTListPointsTo(t *testing.T) {
	idx := buildFixture(pesindex.PT)

	summary, err := Run(idx, Options{Type: ListPointsTo, NQuery: 10, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.QueriesRun != 10 {
		t.Fatalf("QueriesRun = %d, want 10", summary.QueriesRun)
	}
}

func TestCompatibleWithIndex(t *testing.T) {
	if !CompatibleWithIndex(pesindex.PT, ListPointsTo) {
		t.Fatal("ListPointsTo should be PT-compatible")
	}
	if CompatibleWithIndex(pesindex.PT, ListConflicts) {
		t.Fatal("ListConflicts should not be PT-compatible")
	}
	if !CompatibleWithIndex(pesindex.SE, ListConflicts) {
		t.Fatal("ListConflicts should be SE-compatible")
	}
}
