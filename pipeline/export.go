package pipeline

import (
	"path/filepath"

	"github.com/invertedv/stover"
)

// SaveResults writes the merged and pivoted frames to outDir as CSV.
func SaveResults(res *Results, outDir string) error {
	f := stover.NewFiles()

	if e := f.Save(filepath.Join(outDir, "county_treatment_means.csv"), res.Merged); e != nil {
		return e
	}

	return f.Save(filepath.Join(outDir, "county_pivoted.csv"), res.Pivoted)
}
