package stover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFrame() *Frame {
	fips, _ := NewCol("fips", []string{"19001", "17001", "19001", "17001"})
	trt, _ := NewCol("stover_removal", []string{"G", "G", "G25S", "G25S"})
	yr, _ := NewCol("simyear", []int{2012, 2012, 2011, 2011})
	val, _ := NewCol("x", []float64{1, 2, 3, 4})

	fr, e := NewFrame(fips, trt, yr, val)
	if e != nil {
		panic(e)
	}

	return fr
}

func TestNewFrame(t *testing.T) {
	fr := testFrame()
	assert.Equal(t, 4, fr.RowCount())
	assert.Equal(t, 4, fr.ColumnCount())
	assert.Equal(t, []string{"fips", "stover_removal", "simyear", "x"}, fr.ColumnNames())

	short, _ := NewCol("short", []float64{1})
	long, _ := NewCol("long", []float64{1, 2})
	_, e := NewFrame(short, long)
	assert.NotNil(t, e)
}

func TestFrame_Column(t *testing.T) {
	fr := testFrame()

	c, e := fr.Column("x")
	assert.Nil(t, e)
	assert.Equal(t, []float64{1, 2, 3, 4}, c.Data())

	_, e1 := fr.Column("nope")
	assert.ErrorIs(t, e1, ErrColumnNotFound)
}

func TestFrame_AppendDrop(t *testing.T) {
	fr := testFrame()

	dup, _ := NewCol("x", []float64{0, 0, 0, 0})
	assert.NotNil(t, fr.AppendColumn(dup))

	short, _ := NewCol("y", []float64{0})
	assert.NotNil(t, fr.AppendColumn(short))

	y, _ := NewCol("y", []float64{5, 6, 7, 8})
	assert.Nil(t, fr.AppendColumn(y))
	assert.Equal(t, 5, fr.ColumnCount())

	assert.Nil(t, fr.DropColumns("simyear", "y"))
	assert.Equal(t, []string{"fips", "stover_removal", "x"}, fr.ColumnNames())

	assert.ErrorIs(t, fr.DropColumns("nope"), ErrColumnNotFound)
}

func TestFrame_KeepColumnsIsACopy(t *testing.T) {
	fr := testFrame()

	sub, e := fr.KeepColumns("fips", "x")
	assert.Nil(t, e)
	assert.Equal(t, []string{"fips", "x"}, sub.ColumnNames())

	// mutating the subset must not touch the source
	c, _ := sub.Column("x")
	c.Data().([]float64)[0] = -99

	orig, _ := fr.Column("x")
	assert.Equal(t, 1.0, orig.Data().([]float64)[0])
}

func TestFrame_Sort(t *testing.T) {
	fr := testFrame()
	assert.Nil(t, fr.Sort("fips", "stover_removal", "simyear"))

	fips, _ := fr.Column("fips")
	trt, _ := fr.Column("stover_removal")
	x, _ := fr.Column("x")

	assert.Equal(t, []string{"17001", "17001", "19001", "19001"}, fips.Data())
	assert.Equal(t, []string{"G", "G25S", "G", "G25S"}, trt.Data())
	assert.Equal(t, []float64{2, 4, 1, 3}, x.Data())
}

func TestFrame_Take(t *testing.T) {
	fr := testFrame()
	sub := fr.Take([]int{3, 0})

	assert.Equal(t, 2, sub.RowCount())
	assert.Equal(t, []any{"17001", "G25S", 2011, 4.0}, sub.Row(0))
	assert.Equal(t, []any{"19001", "G", 2012, 1.0}, sub.Row(1))
}
