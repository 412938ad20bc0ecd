package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config drives one post-processing run. Everything the original workflow
// hardcoded (input names, the first simulation year, the baseline treatment,
// the map scope) is explicit here.
type Config struct {
	DataDir string `toml:"data_dir"`
	OutDir  string `toml:"out_dir"`

	// FirstYear is the first simulated year. Rows for this year carry a
	// cross-treatment discontinuity instead of an annual SOC change and are
	// dropped during differencing.
	FirstYear int `toml:"first_year"`

	// Baseline is the treatment relative metrics are measured against.
	Baseline string `toml:"baseline"`

	// Scope lists the states (postal codes) shown on maps. Empty = national.
	Scope []string `toml:"scope"`

	Files FilesConfig `toml:"files"`
	DB    DBConfig    `toml:"db"`
}

type FilesConfig struct {
	Area   string `toml:"area"`
	Corn   string `toml:"corn"`
	Soy    string `toml:"soy"`
	Stover string `toml:"stover"`
	SOC    string `toml:"soc"`
	N2O    string `toml:"n2o"`
}

type DBConfig struct {
	Dialect  string `toml:"dialect"` // clickhouse or postgres
	Host     string `toml:"host"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DSN      string `toml:"dsn"` // postgres connection string
	Table    string `toml:"table"`
}

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig matches the original regional corn-stover study: 2011 start
// year, grain-only baseline, and the 23-state eastern-cornbelt scope.
func DefaultConfig() *Config {
	return &Config{
		DataDir:   ".",
		OutDir:    ".",
		FirstYear: 2011,
		Baseline:  Baseline,
		Scope: []string{
			"ND", "SD", "NE", "KS", "MO", "IA", "MN", "WI", "IL", "KY", "IN", "MI",
			"OH", "PA", "WV", "MD", "DE", "NY", "TN", "AR", "OK", "VA", "NC",
		},
		Files: FilesConfig{
			Area:   "area_fips_data.csv",
			Corn:   "corn_yield_year_county.csv",
			Soy:    "soybean_yield_year_county.csv",
			Stover: "Stover_yield_year_county.csv",
			SOC:    "SOC_year_county.csv",
			N2O:    "N2O_year_county.csv",
		},
	}
}

func (c *Config) path(name string) string {
	return filepath.Join(c.DataDir, name)
}
