package stover

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

// CountiesGeoJSON is the county-boundary geometry keyed by FIPS code.
const CountiesGeoJSON = "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json"

type Plot struct {
	Fig *grob.Fig
	Lay *grob.Layout
}

type Opt func(plot *Plot) *Plot

func NewPlot(opt ...Opt) *Plot {
	fig := &grob.Fig{}
	lay := &grob.Layout{}
	fig.Layout = lay
	p := &Plot{Fig: fig, Lay: lay}
	for _, o := range opt {
		o(p)
	}

	return p
}

func WithWidth(w float64) Opt {
	if w < 0.0 {
		panic(fmt.Errorf("negative width"))
	}
	return func(p *Plot) *Plot {
		p.Lay.Width = w
		return p
	}
}

func WithHeight(h float64) Opt {
	if h < 0.0 {
		panic(fmt.Errorf("negative height"))
	}
	return func(p *Plot) *Plot {
		p.Lay.Height = h
		return p
	}
}

func WithTitle(title string) Opt {
	return func(p *Plot) *Plot { p.Lay.Title = &grob.LayoutTitle{Text: title}; return p }
}

func WithLegend(show bool) Opt {
	return func(p *Plot) *Plot {
		if show {
			p.Lay.Showlegend = grob.True
		} else {
			p.Lay.Showlegend = grob.False
		}

		return p
	}
}

// Linspace specifies evenly spaced bin edges: N edges between Min and Max
// inclusive.
type Linspace struct {
	Min, Max float64
	N        int
}

// Edges returns the bin edges.
func (l Linspace) Edges() []float64 {
	return floats.Span(make([]float64, l.N), l.Min, l.Max)
}

// MapSpec parameterizes one choropleth map.
type MapSpec struct {
	Title       string
	LegendTitle string
	Bins        Linspace

	// Divergent swaps the default sequential ramp for a red-white-blue
	// diverging ramp of Bins.N+1 colors; Reverse flips it.
	Divergent bool
	Reverse   bool

	// Scope restricts the map to these states (postal codes). Empty = all.
	Scope []string

	// GeoJSON overrides the county geometry source. Empty = CountiesGeoJSON.
	GeoJSON string
}

// Choropleth adds a color-binned county map to the plot. fips and values are
// parallel; values outside [Bins.Min, Bins.Max] saturate at the end bins.
// Legend bin labels are rounded to integers when Bins.Max >= 10, else kept at
// full precision.
func (p *Plot) Choropleth(fips []string, values []float64, spec MapSpec) error {
	if len(fips) != len(values) {
		return fmt.Errorf("%w: %d locations vs %d values", ErrInvalidMapData, len(fips), len(values))
	}

	if spec.Bins.N < 2 || !(spec.Bins.Max > spec.Bins.Min) ||
		math.IsNaN(spec.Bins.Min) || math.IsNaN(spec.Bins.Max) {
		return fmt.Errorf("%w: bad binning (%v, %v, %d)", ErrInvalidMapData, spec.Bins.Min, spec.Bins.Max, spec.Bins.N)
	}

	var (
		mapFips []string
		mapVals []float64
		finite  bool
	)
	for ind := 0; ind < len(fips); ind++ {
		if !inScope(fips[ind], spec.Scope) {
			continue
		}

		if math.IsInf(values[ind], 0) {
			return fmt.Errorf("%w: non-finite value for %s", ErrInvalidMapData, fips[ind])
		}

		if !math.IsNaN(values[ind]) {
			finite = true
		}

		mapFips = append(mapFips, fips[ind])
		mapVals = append(mapVals, values[ind])
	}

	if !finite {
		return fmt.Errorf("%w: no numeric values to map", ErrInvalidMapData)
	}

	edges := spec.Bins.Edges()

	geoJSON := spec.GeoJSON
	if geoJSON == "" {
		geoJSON = CountiesGeoJSON
	}

	tr := &grob.Choropleth{
		Locations:    mapFips,
		Z:            mapVals,
		Zauto:        grob.False,
		Zmin:         spec.Bins.Min,
		Zmax:         spec.Bins.Max,
		Geojson:      geoJSON,
		Featureidkey: "id",
		Showscale:    grob.True,
		Colorbar: &grob.ChoroplethColorbar{
			Title:    &grob.ChoroplethColorbarTitle{Text: spec.LegendTitle},
			Tickvals: edges,
			Ticktext: legendLabels(edges, spec.Bins.Max >= 10),
		},
		Marker: &grob.ChoroplethMarker{
			Line: &grob.ChoroplethMarkerLine{Color: "rgb(255,255,255)", Width: 0.25},
		},
	}

	if spec.Divergent {
		tr.Colorscale = stepColorscale(divergentRamp(spec.Bins.N+1, spec.Reverse))
	}

	p.Fig.AddTraces(tr)

	if p.Lay.Geo == nil {
		p.Lay.Geo = &grob.LayoutGeo{}
	}
	p.Lay.Geo.Scope = grob.LayoutGeoScopeUsa

	if spec.Title != "" {
		p.Lay.Title = &grob.LayoutTitle{Text: spec.Title}
	}

	return nil
}

// Show writes the figure to fileName (a temp file if empty) and opens it in
// browser (xdg-open if empty).
func (p *Plot) Show(browser, fileName string) error {
	const nameLength = 8

	if browser == "" {
		browser = "xdg-open"
	}

	tmpFile := false
	if fileName == "" {
		fileName = tempFile("html", nameLength)
		tmpFile = true
	}

	offline.ToHtml(p.Fig, fileName)

	cmd := exec.Command(browser, fileName)
	if e := cmd.Start(); e != nil {
		return e
	}

	time.Sleep(time.Second) // need to pause while browser loads graph

	if tmpFile {
		if e := os.Remove(fileName); e != nil {
			return e
		}
	}

	return nil
}

// SaveHTML writes the figure as a standalone HTML file.
func (p *Plot) SaveHTML(fileName string) {
	offline.ToHtml(p.Fig, fileName)
}

// ***************** Helpers ***************

// divergentRamp returns n colors interpolated red -> white -> blue in Lab
// space (RdBu endpoints), in plotly's "rgb(r,g,b)" string form.
func divergentRamp(n int, reverse bool) []string {
	lo, _ := colorful.Hex("#67001f")
	mid, _ := colorful.Hex("#f7f7f7")
	hi, _ := colorful.Hex("#053061")

	ramp := make([]string, n)
	for ind := 0; ind < n; ind++ {
		t := 0.0
		if n > 1 {
			t = float64(ind) / float64(n-1)
		}

		var c colorful.Color
		if t < 0.5 {
			c = lo.BlendLab(mid, t*2.0).Clamped()
		} else {
			c = mid.BlendLab(hi, (t-0.5)*2.0).Clamped()
		}

		ramp[ind] = fmt.Sprintf("rgb(%d,%d,%d)",
			int(c.R*255.0+0.5), int(c.G*255.0+0.5), int(c.B*255.0+0.5))
	}

	if reverse {
		for i, j := 0, len(ramp)-1; i < j; i, j = i+1, j-1 {
			ramp[i], ramp[j] = ramp[j], ramp[i]
		}
	}

	return ramp
}

// stepColorscale converts a color list to a stepwise plotly colorscale: each
// color fills an equal fraction of [0,1] so bins read as flat patches rather
// than a gradient.
func stepColorscale(colors []string) [][]any {
	k := len(colors)
	var scale [][]any
	for ind := 0; ind < k; ind++ {
		scale = append(scale,
			[]any{float64(ind) / float64(k), colors[ind]},
			[]any{float64(ind+1) / float64(k), colors[ind]})
	}

	return scale
}

// legendLabels formats bin edges for the colorbar, rounding to integers when
// the scale is large enough that decimals add nothing.
func legendLabels(edges []float64, round bool) []string {
	labels := make([]string, len(edges))
	for ind, e := range edges {
		if round {
			labels[ind] = strconv.Itoa(int(math.Round(e)))
			continue
		}

		labels[ind] = strconv.FormatFloat(e, 'g', -1, 64)
	}

	return labels
}
