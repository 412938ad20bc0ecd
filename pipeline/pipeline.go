// Package pipeline wires the frame operations into the DayCent corn-stover
// post-processing flow: load six county-scale CSVs, convert units, difference
// SOC, aggregate over the simulation years, merge, pivot by treatment and
// compute treatment-relative metrics.
package pipeline

import (
	"fmt"
	"math"

	"github.com/invertedv/stover"
	"github.com/invertedv/stover/units"
	"go.uber.org/zap"
)

// Key columns shared by the input files.
const (
	ColFIPS      = "fips"
	ColTreatment = "stover_removal"
	ColYear      = "simyear"
)

// Treatments simulated: grain-only harvest plus three stover-removal rates.
const Baseline = "G"

// Removals are the non-baseline treatments.
var Removals = []string{"G25S", "G50S", "G75S"}

// Converted value columns; names carry the units.
const (
	ColArea   = "area_ha"
	ColCorn   = "corn_yield_Mg_ha-1"
	ColSoy    = "soy_yield_Mg_ha-1"
	ColStover = "stover_yield_Mg_ha-1"
	ColSOC    = "SOC_MgC_ha-1"
	ColN2O    = "N2O_MgN_ha-1"
	ColDSOC   = "dSOC_MgC_ha-1"
)

// Results of one run. Area has no year dimension and is kept alongside the
// merged per-treatment results. Reports records what each merge dropped.
type Results struct {
	Area    *stover.Frame
	Merged  *stover.Frame
	Pivoted *stover.Frame

	Reports []*stover.JoinReport
}

type Pipeline struct {
	cfg *Config
	lg  *zap.Logger
}

func New(cfg *Config, lg *zap.Logger) *Pipeline {
	if lg == nil {
		lg = zap.NewNop()
	}

	return &Pipeline{cfg: cfg, lg: lg}
}

// Run executes the whole pipeline. Any stage error halts the run; no partial
// output is returned.
func (p *Pipeline) Run() (*Results, error) {
	raw, e := p.load()
	if e != nil {
		return nil, e
	}

	conv, e1 := p.normalize(raw)
	if e1 != nil {
		return nil, e1
	}

	dsoc, e2 := p.socDiff(conv.soc)
	if e2 != nil {
		return nil, e2
	}
	conv.soc = dsoc

	merged, reports, e3 := p.aggregateAndMerge(conv)
	if e3 != nil {
		return nil, e3
	}

	pivoted, e4 := p.pivot(merged)
	if e4 != nil {
		return nil, e4
	}

	if e := p.derive(pivoted); e != nil {
		return nil, e
	}

	p.lg.Info("pipeline complete",
		zap.Int("counties", pivoted.RowCount()),
		zap.Int("merged_rows", merged.RowCount()))

	return &Results{Area: conv.area, Merged: merged, Pivoted: pivoted, Reports: reports}, nil
}

type tables struct {
	area, corn, soy, stoverYld, soc, n2o *stover.Frame
}

func (p *Pipeline) load() (*tables, error) {
	keyed := func(valName string) stover.FileSchema {
		return stover.FileSchema{
			{Name: ColFIPS, DType: stover.DTstring},
			{Name: ColTreatment, DType: stover.DTstring},
			{Name: ColYear, DType: stover.DTint},
			{Name: valName, DType: stover.DTfloat},
		}
	}

	t := &tables{}
	loads := []struct {
		dst    **stover.Frame
		file   string
		schema stover.FileSchema
	}{
		{&t.area, p.cfg.Files.Area, stover.FileSchema{
			{Name: ColFIPS, DType: stover.DTstring},
			{Name: "area_acres", DType: stover.DTfloat}}},
		{&t.corn, p.cfg.Files.Corn, keyed("grainyield_bu_ac")},
		{&t.soy, p.cfg.Files.Soy, keyed("grainyield_bu_ac")},
		{&t.stoverYld, p.cfg.Files.Stover, keyed("stover_dryyield_kgha")},
		{&t.soc, p.cfg.Files.SOC, keyed("SOC_20cm_g_m2")},
		{&t.n2o, p.cfg.Files.N2O, keyed("N2O_gN_m2")},
	}

	for _, ld := range loads {
		fr, e := stover.ReadCSV(p.cfg.path(ld.file), ld.schema)
		if e != nil {
			return nil, e
		}

		p.lg.Info("loaded", zap.String("file", ld.file), zap.Int("rows", fr.RowCount()))
		*ld.dst = fr
	}

	return t, nil
}

// normalize applies the unit conversions, dropping the raw columns.
func (p *Pipeline) normalize(t *tables) (*tables, error) {
	out := &tables{}
	convs := []struct {
		dst    **stover.Frame
		src    *stover.Frame
		from   string
		factor float64
		to     string
	}{
		{&out.area, t.area, "area_acres", units.HaPerAcre, ColArea},
		{&out.corn, t.corn, "grainyield_bu_ac", units.KgPerBuCorn * units.KgToMg / units.HaPerAcre, ColCorn},
		{&out.soy, t.soy, "grainyield_bu_ac", units.KgPerBuSoy * units.KgToMg / units.HaPerAcre, ColSoy},
		{&out.stoverYld, t.stoverYld, "stover_dryyield_kgha", units.KgToMg, ColStover},
		{&out.soc, t.soc, "SOC_20cm_g_m2", units.GM2ToMgHa, ColSOC},
		{&out.n2o, t.n2o, "N2O_gN_m2", units.GM2ToMgHa, ColN2O},
	}

	for _, cv := range convs {
		fr, e := stover.Scale(cv.src, cv.from, cv.factor, cv.to)
		if e != nil {
			return nil, e
		}

		*cv.dst = fr
	}

	return out, nil
}

// socDiff turns SOC levels into annual SOC changes.
func (p *Pipeline) socDiff(soc *stover.Frame) (*stover.Frame, error) {
	fr, e := stover.Diff(soc, []string{ColFIPS, ColTreatment}, ColYear, ColSOC, ColDSOC, p.cfg.FirstYear)
	if e != nil {
		return nil, e
	}

	p.lg.Info("SOC differenced",
		zap.Int("first_year", p.cfg.FirstYear),
		zap.Int("rows", fr.RowCount()))

	return fr, nil
}

// aggregateAndMerge means each series over the simulation years, then inner
// joins the five tables on (fips, treatment). Aggregation has to come before
// the merges: corn and soy are harvested in alternate years and cannot be
// merged on simyear.
func (p *Pipeline) aggregateAndMerge(t *tables) (*stover.Frame, []*stover.JoinReport, error) {
	keys := []string{ColFIPS, ColTreatment}

	aggs := []struct {
		fr  *stover.Frame
		val string
	}{
		{t.corn, ColCorn},
		{t.soy, ColSoy},
		{t.stoverYld, ColStover},
		{t.soc, ColDSOC},
		{t.n2o, ColN2O},
	}

	var (
		merged  *stover.Frame
		reports []*stover.JoinReport
	)

	for ind, ag := range aggs {
		fr, e := stover.MeanBy(ag.fr, keys, ag.val)
		if e != nil {
			return nil, nil, e
		}

		if ind == 0 {
			merged = fr
			continue
		}

		var (
			rpt *stover.JoinReport
			e1  error
		)
		if merged, rpt, e1 = stover.InnerJoin(merged, fr, keys...); e1 != nil {
			return nil, nil, e1
		}

		p.lg.Info("merged", zap.String("table", ag.val), zap.String("join", rpt.String()))
		reports = append(reports, rpt)
	}

	return merged, reports, nil
}

func (p *Pipeline) pivot(merged *stover.Frame) (*stover.Frame, error) {
	return stover.Pivot(merged, ColFIPS, ColTreatment, ColCorn, ColSoy, ColStover, ColDSOC, ColN2O)
}

// derive appends the treatment-relative metrics to the pivoted frame:
// dSOC/dN2O deltas against the baseline per removal rate, the SOC penalty per
// Mg of stover harvested at 25% removal, and the net biogenic GHG footprint
// in CO2-equivalents. A county lacking a treatment carries NaN through its
// derived columns rather than being dropped.
func (p *Pipeline) derive(piv *stover.Frame) error {
	baseSOC, e := pivotedFloats(piv, ColDSOC, p.cfg.Baseline)
	if e != nil {
		return e
	}

	baseN2O, e1 := pivotedFloats(piv, ColN2O, p.cfg.Baseline)
	if e1 != nil {
		return e1
	}

	for _, trt := range Removals {
		socT, es := pivotedFloats(piv, ColDSOC, trt)
		if es != nil {
			return es
		}

		n2oT, en := pivotedFloats(piv, ColN2O, trt)
		if en != nil {
			return en
		}

		relSOC := make([]float64, len(socT))
		relN2O := make([]float64, len(n2oT))
		ghg := make([]float64, len(socT))
		for ind := range socT {
			relSOC[ind] = socT[ind] - baseSOC[ind]
			relN2O[ind] = n2oT[ind] - baseN2O[ind]
			ghg[ind] = relN2O[ind]*units.NToN2O*units.N2OGWP100 - relSOC[ind]*units.CToCO2
		}

		if e := appendFloats(piv, "dSOC_"+trt+"_relative", relSOC); e != nil {
			return e
		}
		if e := appendFloats(piv, "dN2O_"+trt+"_relative", relN2O); e != nil {
			return e
		}
		if e := appendFloats(piv, "GHG_"+trt+"_CO2e", ghg); e != nil {
			return e
		}
	}

	// SOC penalty per mass of stover harvested at the 25% removal rate
	relSOC25, e2 := frameFloats(piv, "dSOC_G25S_relative")
	if e2 != nil {
		return e2
	}

	stover25, e3 := pivotedFloats(piv, ColStover, "G25S")
	if e3 != nil {
		return e3
	}

	penalty := make([]float64, len(relSOC25))
	for ind := range relSOC25 {
		if stover25[ind] == 0 {
			penalty[ind] = math.NaN()
			continue
		}

		penalty[ind] = relSOC25[ind] / stover25[ind]
	}

	return appendFloats(piv, "dSOC_MgStover", penalty)
}

// pivotedFloats fetches the (value, treatment) column of a pivoted frame,
// failing with ErrMissingTreatment if that treatment never occurs.
func pivotedFloats(piv *stover.Frame, value, treatment string) ([]float64, error) {
	x, e := frameFloats(piv, value+stover.PivotSep+treatment)
	if e != nil {
		return nil, fmt.Errorf("%w: %s is missing %s", stover.ErrMissingTreatment, value, treatment)
	}

	return x, nil
}

func frameFloats(fr *stover.Frame, name string) ([]float64, error) {
	col, e := fr.Column(name)
	if e != nil {
		return nil, e
	}

	return col.AsFloat()
}

func appendFloats(fr *stover.Frame, name string, x []float64) error {
	col, e := stover.NewCol(name, x)
	if e != nil {
		return e
	}

	return fr.AppendColumn(col)
}
