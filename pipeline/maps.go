package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/invertedv/stover"
	"go.uber.org/zap"
)

// MapRequest names a pivoted-frame column and how to draw it.
type MapRequest struct {
	Column string
	Spec   stover.MapSpec
}

// DefaultMaps is the standard map set for a run: stover yield at the 25%
// removal rate, the SOC penalty per mass of stover harvested, and the net
// biogenic GHG footprint at 25% removal.
func DefaultMaps(scope []string) []MapRequest {
	return []MapRequest{
		{
			Column: ColStover + stover.PivotSep + "G25S",
			Spec: stover.MapSpec{
				Title:       "Stover yield @ 25% removal rate",
				LegendTitle: "(Mg ha-1)",
				Bins:        stover.Linspace{Min: 2, Max: 4, N: 21},
				Scope:       scope,
			},
		},
		{
			Column: "dSOC_MgStover",
			Spec: stover.MapSpec{
				Title:       "SOC penalty per mass of stover harvested",
				LegendTitle: "(Mg C (Mg biomass)-1)",
				Bins:        stover.Linspace{Min: -0.05, Max: 0.05, N: 41},
				Divergent:   true,
				Scope:       scope,
			},
		},
		{
			Column: "GHG_G25S_CO2e",
			Spec: stover.MapSpec{
				Title:       "Net biogenic GHG footprint @ 25% removal rate",
				LegendTitle: "(Mg CO2e ha-1 yr-1)",
				Bins:        stover.Linspace{Min: -1, Max: 1, N: 41},
				Divergent:   true,
				Reverse:     true,
				Scope:       scope,
			},
		},
	}
}

// RenderMaps draws each requested column of the pivoted results as a county
// choropleth. Figures land in outDir as HTML; show additionally opens each in
// a browser.
func RenderMaps(res *Results, reqs []MapRequest, outDir string, show bool, lg *zap.Logger) error {
	if lg == nil {
		lg = zap.NewNop()
	}

	fipsCol, e := res.Pivoted.Column(ColFIPS)
	if e != nil {
		return e
	}

	fips, e1 := fipsCol.AsString()
	if e1 != nil {
		return e1
	}

	for _, req := range reqs {
		vals, e2 := frameFloats(res.Pivoted, req.Column)
		if e2 != nil {
			return e2
		}

		plot := stover.NewPlot(stover.WithLegend(false))
		if e := plot.Choropleth(fips, vals, req.Spec); e != nil {
			return e
		}

		fileName := filepath.Join(outDir, mapSlug(req.Column)+".html")
		plot.SaveHTML(fileName)
		lg.Info("map written", zap.String("column", req.Column), zap.String("file", fileName))

		if show {
			if e := plot.Show("", fileName); e != nil {
				return e
			}
		}
	}

	return nil
}

func mapSlug(column string) string {
	r := strings.NewReplacer(stover.PivotSep, "_", "-", "", "/", "_")
	return r.Replace(column)
}
