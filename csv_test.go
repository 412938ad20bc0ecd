package stover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFixture(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if e := os.WriteFile(path, []byte(contents), 0o644); e != nil {
		panic(e)
	}

	return path
}

func socSchema() FileSchema {
	return FileSchema{
		{Name: "fips", DType: DTstring},
		{Name: "stover_removal", DType: DTstring},
		{Name: "simyear", DType: DTint},
		{Name: "SOC_20cm_g_m2", DType: DTfloat},
	}
}

func TestReadCSV(t *testing.T) {
	// an extra leading column, as in the real files; it must be ignored
	path := writeFixture(t, "soc.csv",
		"strata,fips,stover_removal,simyear,SOC_20cm_g_m2\n"+
			"1,19001,G,2011,5000\n"+
			"2,19001,G,2012,5010.5\n")

	fr, e := ReadCSV(path, socSchema())
	assert.Nil(t, e)
	assert.Equal(t, 2, fr.RowCount())
	assert.Equal(t, []string{"fips", "stover_removal", "simyear", "SOC_20cm_g_m2"}, fr.ColumnNames())

	fips, _ := fr.Column("fips")
	assert.Equal(t, []string{"19001", "19001"}, fips.Data())

	yr, _ := fr.Column("simyear")
	assert.Equal(t, []int{2011, 2012}, yr.Data())

	soc, _ := fr.Column("SOC_20cm_g_m2")
	assert.InDelta(t, 5010.5, soc.Data().([]float64)[1], 1e-9)
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, e := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"), socSchema())
	assert.ErrorIs(t, e, ErrMissingFile)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	path := writeFixture(t, "soc.csv",
		"fips,stover_removal,simyear\n19001,G,2011\n")

	_, e := ReadCSV(path, socSchema())
	assert.ErrorIs(t, e, ErrSchemaMismatch)
}

func TestReadCSV_BadCell(t *testing.T) {
	path := writeFixture(t, "soc.csv",
		"fips,stover_removal,simyear,SOC_20cm_g_m2\n19001,G,notayear,5000\n")

	_, e := ReadCSV(path, socSchema())
	assert.ErrorIs(t, e, ErrSchemaMismatch)
}

func TestFiles_SaveRoundTrip(t *testing.T) {
	fips, _ := NewCol("fips", []string{"19001", "17001"})
	yr, _ := NewCol("simyear", []int{2012, 2013})
	x, _ := NewCol("x", []float64{1.25, -3})
	fr, _ := NewFrame(fips, yr, x)

	path := filepath.Join(t.TempDir(), "out.csv")
	assert.Nil(t, NewFiles().Save(path, fr))

	back, e := ReadCSV(path, FileSchema{
		{Name: "fips", DType: DTstring},
		{Name: "simyear", DType: DTint},
		{Name: "x", DType: DTfloat},
	})
	assert.Nil(t, e)
	assert.Equal(t, 2, back.RowCount())

	xb, _ := back.Column("x")
	assert.InDelta(t, 1.25, xb.Data().([]float64)[0], 1e-9)
	assert.InDelta(t, -3.0, xb.Data().([]float64)[1], 1e-9)
}
