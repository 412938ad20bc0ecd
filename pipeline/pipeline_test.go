package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/invertedv/stover"
	"github.com/invertedv/stover/units"
	"github.com/stretchr/testify/assert"
)

// fixture counties: two complete, one lacking the baseline treatment, one
// that appears only in the corn file and must fall out of the merge.
var (
	fullFips   = []string{"19001", "17001"}
	noBaseFips = "17003"
	cornOnly   = "99999"

	treatments = []string{Baseline, "G25S", "G50S", "G75S"}
)

// per-treatment SOC increments (g m-2 yr-1) and N2O fluxes (g N m-2 yr-1)
var (
	socInc  = map[string]float64{"G": 10, "G25S": 5, "G50S": 0, "G75S": -5}
	n2oFlux = map[string]float64{"G": 0.30, "G25S": 0.35, "G50S": 0.40, "G75S": 0.45}
)

var cornBu = []float64{150, 160, 155, 158} // years 2012-2015

func trts(fips string) []string {
	if fips == noBaseFips {
		return treatments[1:]
	}

	return treatments
}

func writeFixtures(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.OutDir = dir

	counties := append(append([]string{}, fullFips...), noBaseFips)

	area := "row,fips,area_acres\n"
	for ind, fips := range counties {
		area += fmt.Sprintf("%d,%s,%g\n", ind, fips, 100.0*float64(ind+1))
	}
	write(t, dir, cfg.Files.Area, area)

	header := "row,fips,stover_removal,simyear,%s\n"
	row := "0,%s,%s,%d,%g\n"

	corn := fmt.Sprintf(header, "grainyield_bu_ac")
	for _, fips := range counties {
		for _, trt := range trts(fips) {
			for ind, bu := range cornBu {
				corn += fmt.Sprintf(row, fips, trt, 2012+ind, bu)
			}
		}
	}
	// a county no other file knows about
	corn += fmt.Sprintf(row, cornOnly, "G", 2012, 140.0)
	write(t, dir, cfg.Files.Corn, corn)

	soy := fmt.Sprintf(header, "grainyield_bu_ac")
	for _, fips := range counties {
		for _, trt := range trts(fips) {
			soy += fmt.Sprintf(row, fips, trt, 2013, 45.0)
			soy += fmt.Sprintf(row, fips, trt, 2015, 48.0)
		}
	}
	write(t, dir, cfg.Files.Soy, soy)

	stoverYld := fmt.Sprintf(header, "stover_dryyield_kgha")
	for _, fips := range counties {
		for _, trt := range trts(fips) {
			kgha := map[string]float64{"G": 0, "G25S": 3000, "G50S": 6000, "G75S": 9000}[trt]
			stoverYld += fmt.Sprintf(row, fips, trt, 2012, kgha)
			stoverYld += fmt.Sprintf(row, fips, trt, 2014, kgha)
		}
	}
	write(t, dir, cfg.Files.Stover, stoverYld)

	soc := fmt.Sprintf(header, "SOC_20cm_g_m2")
	n2o := fmt.Sprintf(header, "N2O_gN_m2")
	for _, fips := range counties {
		for _, trt := range trts(fips) {
			for yr := 2011; yr <= 2015; yr++ {
				soc += fmt.Sprintf(row, fips, trt, yr, 5000.0+socInc[trt]*float64(yr-2011))
				n2o += fmt.Sprintf(row, fips, trt, yr, n2oFlux[trt])
			}
		}
	}
	write(t, dir, cfg.Files.SOC, soc)
	write(t, dir, cfg.Files.N2O, n2o)

	return cfg
}

func write(t *testing.T, dir, name, contents string) {
	t.Helper()

	if e := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); e != nil {
		panic(e)
	}
}

func colVal(t *testing.T, fr *stover.Frame, fips, col string) float64 {
	t.Helper()

	fc, e := fr.Column(ColFIPS)
	assert.Nil(t, e)
	vc, e1 := fr.Column(col)
	assert.Nil(t, e1)

	for ind, f := range fc.Data().([]string) {
		if f == fips {
			return vc.Data().([]float64)[ind]
		}
	}

	panic(fmt.Errorf("fips %s not in frame", fips))
}

func TestPipeline_Run(t *testing.T) {
	cfg := writeFixtures(t)

	res, e := New(cfg, nil).Run()
	assert.Nil(t, e)

	// area loaded and converted, never merged
	assert.Equal(t, []string{ColFIPS, ColArea}, res.Area.ColumnNames())

	// corn-only county must not survive the merge chain
	mFips, _ := res.Merged.Column(ColFIPS)
	for _, f := range mFips.Data().([]string) {
		assert.NotEqual(t, cornOnly, f)
	}

	// 2 full counties x 4 treatments + 1 county x 3 treatments
	assert.Equal(t, 11, res.Merged.RowCount())
	assert.Equal(t, 4, len(res.Reports))
	assert.Equal(t, 1, res.Reports[0].LeftDropped) // the corn-only row

	// aggregated corn yield: mean bu/ac times the conversion factor
	cornFactor := units.KgPerBuCorn * units.KgToMg / units.HaPerAcre
	wantCorn := (150.0 + 160 + 155 + 158) / 4 * cornFactor
	got := colVal(t, res.Pivoted, "19001", ColCorn+stover.PivotSep+Baseline)
	assert.InDelta(t, wantCorn, got, 1e-9)

	// relative metrics against the baseline
	wantDSOC := (socInc["G25S"] - socInc["G"]) * units.GM2ToMgHa
	assert.InDelta(t, wantDSOC, colVal(t, res.Pivoted, "19001", "dSOC_G25S_relative"), 1e-9)

	wantDN2O := (n2oFlux["G25S"] - n2oFlux["G"]) * units.GM2ToMgHa
	assert.InDelta(t, wantDN2O, colVal(t, res.Pivoted, "19001", "dN2O_G25S_relative"), 1e-9)

	wantGHG := wantDN2O*units.NToN2O*units.N2OGWP100 - wantDSOC*units.CToCO2
	assert.InDelta(t, wantGHG, colVal(t, res.Pivoted, "19001", "GHG_G25S_CO2e"), 1e-9)

	// SOC penalty per Mg stover at 25% removal
	wantPenalty := wantDSOC / (3000 * units.KgToMg)
	assert.InDelta(t, wantPenalty, colVal(t, res.Pivoted, "17001", "dSOC_MgStover"), 1e-9)

	// a county without the baseline propagates NaN, it is not dropped
	assert.True(t, math.IsNaN(colVal(t, res.Pivoted, noBaseFips, "dSOC_G25S_relative")))
	assert.True(t, math.IsNaN(colVal(t, res.Pivoted, noBaseFips, "GHG_G75S_CO2e")))
	assert.False(t, math.IsNaN(colVal(t, res.Pivoted, noBaseFips, ColCorn+stover.PivotSep+"G25S")))
}

func TestPipeline_HaltsOnMissingFile(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.Files.N2O = "not_there.csv"

	_, e := New(cfg, nil).Run()
	assert.ErrorIs(t, e, stover.ErrMissingFile)
}

func TestPipeline_HaltsOnWrongFirstYear(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.FirstYear = 1990

	_, e := New(cfg, nil).Run()
	assert.NotNil(t, e)
}

func TestSaveResults(t *testing.T) {
	cfg := writeFixtures(t)

	res, e := New(cfg, nil).Run()
	assert.Nil(t, e)
	assert.Nil(t, SaveResults(res, cfg.OutDir))

	for _, name := range []string{"county_treatment_means.csv", "county_pivoted.csv"} {
		_, eStat := os.Stat(filepath.Join(cfg.OutDir, name))
		assert.Nil(t, eStat)
	}
}

func TestRenderMaps(t *testing.T) {
	cfg := writeFixtures(t)

	res, e := New(cfg, nil).Run()
	assert.Nil(t, e)

	// GHG map uses divergent+reverse; the yield map the default ramp
	assert.Nil(t, RenderMaps(res, DefaultMaps(cfg.Scope), cfg.OutDir, false, nil))

	_, eStat := os.Stat(filepath.Join(cfg.OutDir, "dSOC_MgStover.html"))
	assert.Nil(t, eStat)
}
