package driver

import "fmt"

// QueryType is a tagged enumeration of the query kinds the driver can
// execute, each carrying which index variant(s) it is valid against.
type QueryType string

const (
	IsAlias       QueryType = "is_alias"
	ListPointsTo  QueryType = "list_points_to"
	ListPointedTo QueryType = "list_pointed_to"
	ListAliases   QueryType = "list_aliases"
	// ListAccVars is the side-effect-index counterpart of ListPointsTo,
	// dispatched to query.ListModRefVars. It is also accepted under the
	// alias "list_mod_ref_vars" by Parse.
	ListAccVars   QueryType = "list_acc_vars"
	ListConflicts QueryType = "list_conflicts"
)

type queryInfo struct {
	label        string
	ptCompatible bool
	seCompatible bool
	planMode     bool // supported by plan-mode execution (vs. simulation only)
}

var registry = map[QueryType]queryInfo{
	IsAlias:       {label: "IsAlias", ptCompatible: true, planMode: true},
	ListPointsTo:  {label: "ListPointsTo", ptCompatible: true, planMode: true},
	ListPointedTo: {label: "ListPointedTo", ptCompatible: true, planMode: false},
	ListAliases:   {label: "ListAliases", ptCompatible: true, planMode: true},
	ListAccVars:   {label: "ListAccVars", seCompatible: true, planMode: false},
	ListConflicts: {label: "ListConflicts", seCompatible: true, planMode: false},
}

var aliases = map[string]QueryType{
	"list_mod_ref_vars": ListAccVars,
}

// Parse resolves a CLI flag value into a QueryType.
func Parse(s string) (QueryType, error) {
	if qt, ok := aliases[s]; ok {
		return qt, nil
	}
	qt := QueryType(s)
	if _, ok := registry[qt]; !ok {
		return "", fmt.Errorf("unknown query type %q (valid: %v)", s, All())
	}
	return qt, nil
}

// All returns every recognized query type, for CLI help text.
func All() []QueryType {
	out := make([]QueryType, 0, len(registry))
	for qt := range registry {
		out = append(out, qt)
	}
	return out
}

// Label returns the human-readable name of a query type.
func (qt QueryType) Label() string {
	return registry[qt].label
}

// SupportsPlanMode reports whether qt can be driven from a query-plan file.
func (qt QueryType) SupportsPlanMode() bool {
	return registry[qt].planMode
}

// compatibleWith reports whether qt can be evaluated against an index of
// the given PT/SE variant.
func (qt QueryType) compatibleWith(se bool) bool {
	info := registry[qt]
	if se {
		return info.seCompatible
	}
	return info.ptCompatible
}
