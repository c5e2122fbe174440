// Package driver executes PesTrie queries against a loaded index, either
// by replaying a query-plan file (plan mode) or by generating randomized
// queries (simulation mode).
package driver

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/pestrie/pestrie/internal/pesindex"
	"github.com/pestrie/pestrie/internal/query"
	apperrors "github.com/pestrie/pestrie/pkg/errors"
	"github.com/pestrie/pestrie/pkg/utils"
	"github.com/pestrie/pestrie/pkg/writer"
)

// Options configures a single driver run.
type Options struct {
	Type         QueryType
	PlanFile     string // empty means simulation mode
	NQuery       int    // number of simulated queries; ignored in plan mode
	PrintAnswers bool
	// Format selects how PrintAnswers renders each answer in plan mode:
	// "text" (default, the original's printf layout) or "json".
	Format string
	Logger utils.Logger
}

// AnswerRecord is one query plan entry's answer, emitted by --print-answers
// --format json.
type AnswerRecord struct {
	Type QueryType `json:"type"`
	X    int32     `json:"x"`
	Y    *int32    `json:"y,omitempty"`
	Bool *bool     `json:"bool,omitempty"`
	Int  *int      `json:"int,omitempty"`
}

// answerSink renders one plan-mode answer, either as the original's
// plain-text lines or as a JSON record.
type answerSink struct {
	format string
	jw     *writer.JSONWriter[AnswerRecord]
}

func newAnswerSink(format string) *answerSink {
	return &answerSink{format: format, jw: writer.NewJSONWriter[AnswerRecord]()}
}

func (s *answerSink) printPair(qt QueryType, x, y int32, ans bool) {
	if s.format == "json" {
		if err := s.jw.Write(AnswerRecord{Type: qt, X: x, Y: &y, Bool: &ans}, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write JSON answer: %v\n", err)
		}
		return
	}
	fmt.Printf("(%d, %d) : %t\n", x, y, ans)
}

func (s *answerSink) printCount(qt QueryType, x int32, ans int) {
	if s.format == "json" {
		if err := s.jw.Write(AnswerRecord{Type: qt, X: x, Int: &ans}, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write JSON answer: %v\n", err)
		}
		return
	}
	fmt.Printf("%d : %d\n", x, ans)
}

// Summary reports what a driver run did, logged by the query command after
// every run and checked by tests.
type Summary struct {
	Type              QueryType
	QueriesRun        int
	OutOfRangeSkipped int
	Answer            int // aggregate answer count, meaningful for count-style queries
	QueryDuration     time.Duration
}

// Run executes opts against idx, dispatching to plan or simulation mode.
func Run(idx *pesindex.Index, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, os.Stderr)
	}

	timer := utils.NewTimer("query", utils.WithLogger(logger))
	pt := timer.Start("run")

	var summary Summary
	var err error
	if opts.PlanFile != "" {
		if !opts.Type.SupportsPlanMode() {
			return Summary{}, apperrors.Wrap(apperrors.CodeIncompatibleQuery,
				fmt.Sprintf("query type %q is not supported in plan mode", opts.Type), nil)
		}
		summary, err = runPlan(idx, opts, logger)
	} else {
		summary, err = runSimulation(idx, opts, logger)
	}

	summary.QueryDuration = pt.Stop()
	return summary, err
}

// CompatibleWithIndex reports whether qt may be evaluated against an index
// of idx's variant, mirroring the original's PT/SE compatibility gate.
func CompatibleWithIndex(idxType pesindex.Type, qt QueryType) bool {
	return qt.compatibleWith(idxType == pesindex.SE)
}

func runPlan(idx *pesindex.Index, opts Options, logger utils.Logger) (Summary, error) {
	f, err := os.Open(opts.PlanFile)
	if err != nil {
		return Summary{}, apperrors.Wrap(apperrors.CodePlanOpen, "cannot open the query plan file", err)
	}
	defer f.Close()

	var queries []int32
	es2baseptrs := make([][]int32, idx.VertexNum)
	oob := 0

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		v, err := strconv.Atoi(scanner.Text())
		if err != nil {
			continue
		}
		x := int32(v)
		if v < 0 || v >= len(idx.PreV) || idx.PreV[x] >= idx.VertexNum {
			oob++
			logger.Warn(fmt.Sprintf("query plan entry %d is out of range, skipping", v))
			continue
		}
		queries = append(queries, x)

		es := idx.PreV[x]
		if es != -1 {
			es2baseptrs[es] = append(es2baseptrs[es], x)
		}
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, apperrors.Wrap(apperrors.CodePlanOpen, "error reading query plan file", err)
	}

	summary := Summary{Type: opts.Type, QueriesRun: len(queries) + oob, OutOfRangeSkipped: oob}
	sink := newAnswerSink(opts.Format)

	for i, x := range queries {
		switch opts.Type {
		case IsAlias:
			for j := i + 1; j < len(queries); j++ {
				y := queries[j]
				ans := query.IsAlias(idx, x, y)
				if opts.PrintAnswers {
					sink.printPair(opts.Type, x, y, ans)
				}
			}
		case ListPointsTo:
			ans := query.ListPointsTo(idx, x)
			summary.Answer += ans
			if opts.PrintAnswers {
				sink.printCount(opts.Type, x, ans)
			}
		case ListAliases:
			ans := query.ListAliases(idx, x, es2baseptrs)
			summary.Answer += ans
			if opts.PrintAnswers {
				sink.printCount(opts.Type, x, ans)
			}
		}
	}

	return summary, nil
}

func runSimulation(idx *pesindex.Index, opts Options, logger utils.Logger) (Summary, error) {
	if !CompatibleWithIndex(idx.Type, opts.Type) {
		return Summary{}, apperrors.Wrap(apperrors.CodeIncompatibleQuery,
			fmt.Sprintf("query type %q is not supported by the loaded %s index", opts.Type, idx.Type), nil)
	}

	nQuery := opts.NQuery
	if idx.Type == pesindex.SE {
		nQuery = int(idx.N)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	summary := Summary{Type: opts.Type, QueriesRun: nQuery}

	for i := 0; i < nQuery; i++ {
		switch opts.Type {
		case IsAlias:
			x := int32(rng.Intn(int(idx.N)))
			y := int32(rng.Intn(int(idx.N)))
			query.IsAlias(idx, x, y)
		case ListPointsTo:
			x := int32(rng.Intn(int(idx.N)))
			summary.Answer += query.ListPointsTo(idx, x)
		case ListPointedTo:
			x := int32(rng.Intn(int(idx.M)))
			summary.Answer += query.ListPointedTo(idx, x)
		case ListAliases:
			x := int32(rng.Intn(int(idx.N)))
			summary.Answer += query.ListAliases(idx, x, nil)
		case ListAccVars:
			summary.Answer += query.ListModRefVars(idx, int32(i))
		case ListConflicts:
			summary.Answer += query.ListConflicts(idx, int32(i))
		}
	}

	logger.Debug(fmt.Sprintf("simulated %d %s queries", nQuery, opts.Type.Label()))
	return summary, nil
}
