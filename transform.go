package stover

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// The pipeline stages. Each function returns a new Frame; inputs are never
// modified.

// Scale replaces column src with target, where target[i] = src[i] * factor.
// Row order and all other columns are unchanged.
func Scale(fr *Frame, src string, factor float64, target string) (*Frame, error) {
	out := fr.Copy()

	var (
		col *Col
		e   error
	)
	if col, e = out.Column(src); e != nil {
		return nil, e
	}

	var x []float64
	if x, e = col.AsFloat(); e != nil {
		return nil, e
	}

	scaled := make([]float64, len(x))
	for ind := 0; ind < len(x); ind++ {
		scaled[ind] = x[ind] * factor
	}

	newCol, e1 := NewCol(target, scaled)
	if e1 != nil {
		return nil, e1
	}

	if e := out.AppendColumn(newCol); e != nil {
		return nil, e
	}

	if e := out.DropColumns(src); e != nil {
		return nil, e
	}

	return out, nil
}

// Diff sorts ascending by (keys..., yearCol) and computes year-over-year
// differences of valCol within each key group, appending them as diffName.
// The first row of each group has no defined difference and is dropped, as is
// every row whose year equals firstYear: the first simulation year's "change"
// is a cross-treatment discontinuity, not a temporal delta. A group with a
// single year therefore produces no output rows.
//
// firstYear is an explicit constant, not detected from the data; Diff fails
// if that year is absent from yearCol so a changed input range cannot
// silently produce wrong results.
func Diff(fr *Frame, keys []string, yearCol, valCol, diffName string, firstYear int) (*Frame, error) {
	out := fr.Copy()

	sortKeys := append(append([]string{}, keys...), yearCol)
	if e := out.Sort(sortKeys...); e != nil {
		return nil, e
	}

	var (
		yc, vc *Col
		e      error
	)
	if yc, e = out.Column(yearCol); e != nil {
		return nil, e
	}
	if vc, e = out.Column(valCol); e != nil {
		return nil, e
	}

	var years []int
	if years, e = yc.AsInt(); e != nil {
		return nil, e
	}

	var vals []float64
	if vals, e = vc.AsFloat(); e != nil {
		return nil, e
	}

	var keyCols []*Col
	for _, k := range keys {
		var kc *Col
		if kc, e = out.Column(k); e != nil {
			return nil, e
		}
		keyCols = append(keyCols, kc)
	}

	seen := false
	for ind := 0; ind < len(years); ind++ {
		if years[ind] == firstYear {
			seen = true
			break
		}
	}
	if !seen {
		return nil, fmt.Errorf("first simulation year %d not present in %s", firstYear, yearCol)
	}

	n := out.RowCount()
	diffs := make([]float64, n)
	var keep []int
	for ind := 0; ind < n; ind++ {
		if ind == 0 || rowKey(keyCols, ind) != rowKey(keyCols, ind-1) {
			// first row of a group
			continue
		}

		diffs[ind] = vals[ind] - vals[ind-1]
		if years[ind] != firstYear {
			keep = append(keep, ind)
		}
	}

	dCol, e1 := NewCol(diffName, diffs)
	if e1 != nil {
		return nil, e1
	}

	if e := out.AppendColumn(dCol); e != nil {
		return nil, e
	}

	return out.Take(keep), nil
}

// MeanBy collapses the frame to one row per distinct key combination, with
// valCol replaced by its arithmetic mean over the group. Output rows are
// sorted by the keys, so the result does not depend on input row order.
func MeanBy(fr *Frame, keys []string, valCol string) (*Frame, error) {
	cp, e := fr.KeepColumns(append(append([]string{}, keys...), valCol)...)
	if e != nil {
		return nil, e
	}

	if e := cp.Sort(keys...); e != nil {
		return nil, e
	}

	var keyCols []*Col
	for _, k := range keys {
		kc, ek := cp.Column(k)
		if ek != nil {
			return nil, ek
		}
		keyCols = append(keyCols, kc)
	}

	vc, ev := cp.Column(valCol)
	if ev != nil {
		return nil, ev
	}

	var vals []float64
	if vals, e = vc.AsFloat(); e != nil {
		return nil, e
	}

	var (
		firsts []int
		means  []float64
	)

	n := cp.RowCount()
	start := 0
	for ind := 1; ind <= n; ind++ {
		if ind < n && rowKey(keyCols, ind) == rowKey(keyCols, start) {
			continue
		}

		firsts = append(firsts, start)
		means = append(means, stat.Mean(vals[start:ind], nil))
		start = ind
	}

	var cols []*Col
	for _, kc := range keyCols {
		cols = append(cols, kc.take(firsts))
	}

	mCol, em := NewCol(valCol, means)
	if em != nil {
		return nil, em
	}
	cols = append(cols, mCol)

	return NewFrame(cols...)
}

// JoinReport records what an inner join kept and dropped. Counties missing
// from either side fall out of the result; the report makes those drops
// visible to the caller.
type JoinReport struct {
	LeftRows, RightRows, OutRows int
	LeftDropped, RightDropped    int
}

func (jr *JoinReport) String() string {
	return fmt.Sprintf("inner join: %d x %d -> %d rows (dropped %d left, %d right)",
		jr.LeftRows, jr.RightRows, jr.OutRows, jr.LeftDropped, jr.RightDropped)
}

// InnerJoin joins two frames on the key columns. Only keys present in both
// frames appear in the output; right must be uniquely keyed. The output
// carries every column of left plus right's non-key columns, in left's row
// order.
func InnerJoin(left, right *Frame, keys ...string) (*Frame, *JoinReport, error) {
	var (
		lKeys, rKeys []*Col
		e            error
	)

	for _, k := range keys {
		var lc, rc *Col
		if lc, e = left.Column(k); e != nil {
			return nil, nil, e
		}
		if rc, e = right.Column(k); e != nil {
			return nil, nil, e
		}
		lKeys, rKeys = append(lKeys, lc), append(rKeys, rc)
	}

	rIndex := make(map[string]int)
	for ind := 0; ind < right.RowCount(); ind++ {
		k := rowKey(rKeys, ind)
		if _, dup := rIndex[k]; dup {
			return nil, nil, fmt.Errorf("duplicate key %q in right frame of join", k)
		}
		rIndex[k] = ind
	}

	var lRows, rRows []int
	for ind := 0; ind < left.RowCount(); ind++ {
		if rInd, ok := rIndex[rowKey(lKeys, ind)]; ok {
			lRows = append(lRows, ind)
			rRows = append(rRows, rInd)
		}
	}

	out := left.Take(lRows)
	rTaken := right.Take(rRows)
	for c := rTaken.Next(true); c != nil; c = rTaken.Next(false) {
		if hasString(c.Name(""), keys) {
			continue
		}

		if e := out.AppendColumn(c); e != nil {
			return nil, nil, e
		}
	}

	rMatched := make(map[int]bool)
	for _, r := range rRows {
		rMatched[r] = true
	}

	report := &JoinReport{
		LeftRows:     left.RowCount(),
		RightRows:    right.RowCount(),
		OutRows:      out.RowCount(),
		LeftDropped:  left.RowCount() - len(lRows),
		RightDropped: right.RowCount() - len(rMatched),
	}

	return out, report, nil
}

// PivotSep separates the value name from the treatment in pivoted column
// names, e.g. "corn_yield_Mg_ha-1@G25S".
const PivotSep = "@"

// Pivot reshapes from long to wide: one output row per distinct index value,
// one output column per (value column x colCol level), named
// value + PivotSep + level. Cells with no matching input row are NaN.
func Pivot(fr *Frame, index, colCol string, values ...string) (*Frame, error) {
	idxCol, e := fr.Column(index)
	if e != nil {
		return nil, e
	}

	levCol, e1 := fr.Column(colCol)
	if e1 != nil {
		return nil, e1
	}

	var idx, levels []string
	if idx, e = idxCol.AsString(); e != nil {
		return nil, e
	}
	if levels, e = levCol.AsString(); e != nil {
		return nil, e
	}

	outIdx := distinct(idx)
	outLevels := distinct(levels)

	idxPos := make(map[string]int, len(outIdx))
	for ind, v := range outIdx {
		idxPos[v] = ind
	}
	levPos := make(map[string]int, len(outLevels))
	for ind, v := range outLevels {
		levPos[v] = ind
	}

	iCol, eI := NewCol(index, outIdx)
	if eI != nil {
		return nil, eI
	}
	cols := []*Col{iCol}

	for _, vName := range values {
		vc, ev := fr.Column(vName)
		if ev != nil {
			return nil, ev
		}

		var vals []float64
		if vals, e = vc.AsFloat(); e != nil {
			return nil, e
		}

		wide := make([][]float64, len(outLevels))
		for l := range wide {
			wide[l] = make([]float64, len(outIdx))
			for r := range wide[l] {
				wide[l][r] = math.NaN()
			}
		}

		for row := 0; row < fr.RowCount(); row++ {
			wide[levPos[levels[row]]][idxPos[idx[row]]] = vals[row]
		}

		for l, lev := range outLevels {
			wc, ew := NewCol(vName+PivotSep+lev, wide[l])
			if ew != nil {
				return nil, ew
			}
			cols = append(cols, wc)
		}
	}

	return NewFrame(cols...)
}

// Melt is the inverse of Pivot: every column named value + PivotSep + level
// becomes a (level, value) pair in long form. Columns without PivotSep in
// their name (derived metrics) are ignored. Rows whose cells are all NaN
// (index/level combinations absent from the original long frame) are dropped.
func Melt(fr *Frame, index, colCol string) (*Frame, error) {
	idxCol, e := fr.Column(index)
	if e != nil {
		return nil, e
	}

	var idx []string
	if idx, e = idxCol.AsString(); e != nil {
		return nil, e
	}

	var (
		values []string
		levels []string
	)
	wide := make(map[string][]float64)
	for c := fr.Next(true); c != nil; c = fr.Next(false) {
		nm := c.Name("")
		cut := strings.LastIndex(nm, PivotSep)
		if cut < 0 {
			continue
		}

		vName, lev := nm[:cut], nm[cut+len(PivotSep):]
		if !hasString(vName, values) {
			values = append(values, vName)
		}
		if !hasString(lev, levels) {
			levels = append(levels, lev)
		}

		var x []float64
		if x, e = c.AsFloat(); e != nil {
			return nil, e
		}
		wide[nm] = x
	}

	var (
		outIdx, outLev []string
		outVals        = make([][]float64, len(values))
	)

	for row := 0; row < len(idx); row++ {
		for _, lev := range levels {
			allNaN := true
			for _, vName := range values {
				if x, ok := wide[vName+PivotSep+lev]; ok && !math.IsNaN(x[row]) {
					allNaN = false
					break
				}
			}
			if allNaN {
				continue
			}

			outIdx = append(outIdx, idx[row])
			outLev = append(outLev, lev)
			for vInd, vName := range values {
				v := math.NaN()
				if x := wide[vName+PivotSep+lev]; x != nil {
					v = x[row]
				}
				outVals[vInd] = append(outVals[vInd], v)
			}
		}
	}

	iCol, eI := NewCol(index, outIdx)
	if eI != nil {
		return nil, eI
	}
	lCol, eL := NewCol(colCol, outLev)
	if eL != nil {
		return nil, eL
	}

	cols := []*Col{iCol, lCol}
	for vInd, vName := range values {
		vc, ev := NewCol(vName, outVals[vInd])
		if ev != nil {
			return nil, ev
		}
		cols = append(cols, vc)
	}

	return NewFrame(cols...)
}

// ***************** helpers *****************

const keySep = "\x1f"

// rowKey builds a composite group key from the key columns at row ind.
func rowKey(keyCols []*Col, ind int) string {
	var parts []string
	for _, kc := range keyCols {
		parts = append(parts, fmt.Sprintf("%v", kc.Element(ind)))
	}

	return strings.Join(parts, keySep)
}

func hasString(needle string, haystack []string) bool {
	for _, straw := range haystack {
		if needle == straw {
			return true
		}
	}

	return false
}

// distinct returns the sorted distinct values of x.
func distinct(x []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range x {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	sort.Strings(out)

	return out
}
