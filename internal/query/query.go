// Package query implements the PesTrie alias/points-to query family over a
// decoded pesindex.Index: IsAlias, ListPointsTo, ListAliases, ListPointedTo,
// and their side-effect-index counterparts ListModRefVars and
// ListConflicts.
package query

import "github.com/pestrie/pestrie/internal/pesindex"

// IsAlias reports whether pointers x and y are aliased: whether *x and *y
// may refer to the same object. Pointers in the same tree are always
// aliased; otherwise the answer is a point-location query over x's index
// figure, asking whether it covers y's pre-order label.
func IsAlias(idx *pesindex.Index, x, y int32) bool {
	tr1 := idx.Tree[x]
	if tr1 == -1 {
		return false
	}
	tr2 := idx.Tree[y]
	if tr2 == -1 {
		return false
	}
	if tr1 == tr2 {
		return true
	}

	bucket := idx.Seg.Bucket(idx.PreV[x])
	if bucket == nil {
		return false
	}
	yy := idx.PreV[y]

	shapes := bucket.Shapes
	s, e := 0, len(shapes)
	for e > s {
		mid := (s + e) / 2
		sh := shapes[mid]
		if sh.Y2 >= yy {
			if sh.Y1 <= yy {
				return true
			}
			e = mid
		} else {
			s = mid + 1
		}
	}
	return false
}

// ListPointsTo counts the objects pointer x may point to: the objects
// rooted in x's own tree, plus one tree's worth of objects for every tree
// root named by an endpoint of x's index figure. Only each shape's Y1 is
// consulted, since the figure's shapes are coalesced and every tree-root
// label that appears as an endpoint is the leftmost point of the segment
// that names it.
func ListPointsTo(idx *pesindex.Index, x int32) int {
	tr := idx.Tree[x]
	if tr == -1 {
		return 0
	}

	ans := int(idx.ObjsInTree[tr])

	bucket := idx.Seg.Bucket(idx.PreV[x])
	if bucket != nil {
		for _, sh := range bucket.Shapes {
			v := sh.Y1
			if idx.IsRoot.Test(int(v)) {
				ans += int(idx.ObjsInTree[idx.PrevToTree[v]])
			}
		}
	}

	return ans
}

// ListAliases counts the pointers y such that *x and *y are an alias pair.
// When es2baseptrs is non-nil (plan mode), equivalence-set membership is
// looked up there instead of idx.ES2Pointers, so only pointers named in the
// active query plan are counted.
func ListAliases(idx *pesindex.Index, x int32, es2baseptrs [][]int32) int {
	tr := idx.Tree[x]
	if tr == -1 {
		return 0
	}

	groups := idx.ES2Pointers
	if es2baseptrs != nil {
		groups = es2baseptrs
	}

	ans := 0
	visit := func(es int32) {
		ans += iterateEquivalentSet(groups, es)
	}

	upper := idx.ObjRank[tr+1]
	for i := idx.ObjRank[tr]; i < upper; i++ {
		visit(i)
	}

	bucket := idx.Seg.Bucket(idx.PreV[x])
	if bucket != nil {
		for _, sh := range bucket.Shapes {
			lower, upper := sh.Y1, sh.Y2
			visit(lower)
			for lower++; lower <= upper; lower++ {
				visit(lower)
			}
		}
	}

	return ans
}

func iterateEquivalentSet(groups [][]int32, es int32) int {
	if int(es) < 0 || int(es) >= len(groups) {
		return 0
	}
	ans := 0
	for _, q := range groups[es] {
		if q >= 0 {
			ans++
		}
	}
	return ans
}

// ListPointedTo counts the pointers that may point to object o, by
// translating o into the combined pointer/object index space and deferring
// to ListAliases.
func ListPointedTo(idx *pesindex.Index, o int32) int {
	return ListAliases(idx, o+idx.N, nil)
}

// ListModRefVars counts the variables an SE-index entity x may modify or
// reference; for the side-effect matrix this is the same computation as
// ListPointsTo.
func ListModRefVars(idx *pesindex.Index, x int32) int {
	return ListPointsTo(idx, x)
}

// ListConflicts counts potential side-effect conflicts for x, restricted to
// entities stored below the index's max-store-prev watermark (the half of
// the SE matrix actually materialized with alias figures).
func ListConflicts(idx *pesindex.Index, x int32) int {
	if idx.PreV[x] >= idx.MaxStorePrev {
		return 0
	}
	return ListAliases(idx, x, nil)
}
