// Package stover post-processes regional DayCent corn-stover simulation
// results: per-county, per-year, per-treatment CSV output is unit-converted,
// differenced, aggregated, merged, pivoted and mapped at county granularity.
//
// The Frame type is a small column-oriented table; every transformation
// (Scale, Diff, MeanBy, InnerJoin, Pivot) returns a new Frame and leaves its
// input untouched, so each stage of the pipeline is composable and testable
// on its own.
package stover

import (
	"fmt"
	"sort"

	u "github.com/invertedv/utilities"
)

// Frame is the data: a doubly linked list of columns of equal length.
type Frame struct {
	head    *columnList
	current *columnList

	by []*Col
}

type columnList struct {
	col *Col

	prior *columnList
	next  *columnList
}

func NewFrame(cols ...*Col) (*Frame, error) {
	if cols == nil {
		return nil, fmt.Errorf("no columns in NewFrame")
	}

	rowCount := cols[0].Len()

	var head, priorNode *columnList
	for ind := 0; ind < len(cols); ind++ {
		if cols[ind].Len() != rowCount {
			return nil, fmt.Errorf("length mismatch: column %s has %d rows, expected %d",
				cols[ind].Name(""), cols[ind].Len(), rowCount)
		}

		node := &columnList{
			col: cols[ind],

			prior: priorNode,
			next:  nil,
		}

		if priorNode != nil {
			priorNode.next = node
		}

		priorNode = node

		if ind == 0 {
			head = node
		}
	}

	return &Frame{head: head}, nil
}

// Next iterates through the columns, returning nil when exhausted.
func (fr *Frame) Next(reset bool) *Col {
	if reset || fr.current == nil {
		fr.current = fr.head
		return fr.current.col
	}

	if fr.current.next == nil {
		fr.current = nil
		return nil
	}

	fr.current = fr.current.next
	return fr.current.col
}

func (fr *Frame) RowCount() int {
	return fr.head.col.Len()
}

func (fr *Frame) ColumnCount() int {
	cols := 0
	for c := fr.head; c != nil; c = c.next {
		cols++
	}

	return cols
}

func (fr *Frame) ColumnNames() []string {
	var names []string

	for h := fr.head; h != nil; h = h.next {
		names = append(names, h.col.Name(""))
	}

	return names
}

func (fr *Frame) HasColumns(colNames ...string) bool {
	for _, nm := range colNames {
		if !u.Has(nm, "", fr.ColumnNames()...) {
			return false
		}
	}

	return true
}

func (fr *Frame) Column(colName string) (col *Col, err error) {
	for h := fr.head; h != nil; h = h.next {
		if h.col.Name("") == colName {
			return h.col, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, colName)
}

func (fr *Frame) AppendColumn(col *Col) error {
	if u.Has(col.Name(""), "", fr.ColumnNames()...) {
		return fmt.Errorf("duplicate column name: %s", col.Name(""))
	}

	if col.Len() != fr.RowCount() {
		return fmt.Errorf("length mismatch: frame - %d, append col - %d", fr.RowCount(), col.Len())
	}

	var tail *columnList
	for tail = fr.head; tail.next != nil; tail = tail.next {
	}

	node := &columnList{
		col:   col,
		prior: tail,
		next:  nil,
	}

	tail.next = node

	return nil
}

func (fr *Frame) node(colName string) (node *columnList, err error) {
	for h := fr.head; h != nil; h = h.next {
		if h.col.Name("") == colName {
			return h, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, colName)
}

func (fr *Frame) DropColumns(colNames ...string) error {
	for _, cName := range colNames {
		var (
			nd *columnList
			e  error
		)

		if nd, e = fr.node(cName); e != nil {
			return e
		}

		if nd == fr.head {
			if fr.head.next == nil {
				fr.head = nil
				return fmt.Errorf("no columns left")
			}

			fr.head = fr.head.next
			fr.head.prior = nil
			continue
		}

		nd.prior.next = nd.next
		if nd.next != nil {
			nd.next.prior = nd.prior
		}
	}

	return nil
}

// KeepColumns returns a new Frame holding copies of the named columns, in the
// order given.
func (fr *Frame) KeepColumns(colNames ...string) (*Frame, error) {
	var cols []*Col

	for ind := 0; ind < len(colNames); ind++ {
		var (
			col *Col
			err error
		)

		if col, err = fr.Column(colNames[ind]); err != nil {
			return nil, err
		}

		cols = append(cols, col.Copy())
	}

	return NewFrame(cols...)
}

// Copy deep-copies the frame.
func (fr *Frame) Copy() *Frame {
	var cols []*Col
	for c := fr.Next(true); c != nil; c = fr.Next(false) {
		cols = append(cols, c.Copy())
	}

	out, e := NewFrame(cols...)
	if e != nil {
		panic(e)
	}

	return out
}

// Row returns the row at ind as a slice of values in column order.
func (fr *Frame) Row(ind int) []any {
	var row []any
	for h := fr.head; h != nil; h = h.next {
		row = append(row, h.col.Element(ind))
	}

	return row
}

// Take returns a new Frame holding the rows indexed by rows, in that order.
func (fr *Frame) Take(rows []int) *Frame {
	var cols []*Col
	for c := fr.Next(true); c != nil; c = fr.Next(false) {
		cols = append(cols, c.take(rows))
	}

	out, e := NewFrame(cols...)
	if e != nil {
		panic(e)
	}

	return out
}

// ***************** sorting *****************

// Less compares rows i, j lexicographically on the sort-by columns.
func (fr *Frame) Less(i, j int) bool {
	for ind := 0; ind < len(fr.by); ind++ {
		c := fr.by[ind]

		// strictly less
		if c.Less(i, j) && !c.Less(j, i) {
			return true
		}

		// strictly greater
		if c.Less(j, i) && !c.Less(i, j) {
			return false
		}

		// equal -- keep checking
	}

	return false
}

func (fr *Frame) Swap(i, j int) {
	for h := fr.Next(true); h != nil; h = fr.Next(false) {
		data := h.data
		switch h.DataType() {
		case DTfloat:
			data.([]float64)[i], data.([]float64)[j] = data.([]float64)[j], data.([]float64)[i]
		case DTint:
			data.([]int)[i], data.([]int)[j] = data.([]int)[j], data.([]int)[i]
		case DTstring:
			data.([]string)[i], data.([]string)[j] = data.([]string)[j], data.([]string)[i]
		default:
			panic(fmt.Errorf("unsupported data type in Swap"))
		}
	}
}

// Len is required for sort.
func (fr *Frame) Len() int {
	return fr.RowCount()
}

// Sort sorts the frame ascending by the key columns, in place.
func (fr *Frame) Sort(keys ...string) error {
	var by []*Col

	for ind := 0; ind < len(keys); ind++ {
		var (
			x *Col
			e error
		)

		if x, e = fr.Column(keys[ind]); e != nil {
			return e
		}

		by = append(by, x)
	}

	fr.by = by
	sort.Stable(fr)
	fr.by = nil

	return nil
}
