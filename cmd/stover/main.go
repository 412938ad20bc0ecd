// Command stover post-processes regional DayCent corn-stover simulation
// results into county-scale summary tables and choropleth maps.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/invertedv/stover/pipeline"
	"github.com/invertedv/stover/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgPath   string
	verbose   bool
	saveTable string
	showMaps  bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stover",
	Short: "Post-process DayCent regional stover-removal simulation results",
	Long: `stover ingests county-scale DayCent results for four stover-removal
treatments, converts units, aggregates over the simulation years, computes
treatment-relative SOC and N2O metrics, and maps selected results as county
choropleths.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}

		var err error
		logger, err = config.Build()

		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline and write result tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, res, err := runPipeline()
		if err != nil {
			return err
		}

		if err := pipeline.SaveResults(res, cfg.OutDir); err != nil {
			return err
		}
		logger.Info("results written", zap.String("dir", cfg.OutDir))

		table := saveTable
		if table == "" {
			table = cfg.DB.Table
		}
		if table == "" {
			return nil
		}

		return saveToDB(cfg, res, table)
	},
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Run the pipeline and render the standard map set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, res, err := runPipeline()
		if err != nil {
			return err
		}

		return pipeline.RenderMaps(res, pipeline.DefaultMaps(cfg.Scope), cfg.OutDir, showMaps, logger)
	},
}

func runPipeline() (*pipeline.Config, *pipeline.Results, error) {
	cfg := pipeline.DefaultConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(cfgPath); err != nil {
			return nil, nil, err
		}
	}

	res, err := pipeline.New(cfg, logger).Run()
	if err != nil {
		return nil, nil, err
	}

	return cfg, res, nil
}

func saveToDB(cfg *pipeline.Config, res *pipeline.Results, table string) error {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.DB.Dialect {
	case store.CH:
		db, err = store.ConnectCH(cfg.DB.Host, cfg.DB.User, cfg.DB.Password)
	case store.PG:
		db, err = store.ConnectPG(cfg.DB.DSN)
	default:
		return fmt.Errorf("unsupported db dialect %q in config", cfg.DB.Dialect)
	}
	if err != nil {
		return err
	}

	dlct, err := store.NewDialect(cfg.DB.Dialect, db)
	if err != nil {
		return err
	}
	defer func() { _ = dlct.Close() }()

	if err := dlct.Save(table, pipeline.ColFIPS, true, res.Pivoted); err != nil {
		return err
	}

	logger.Info("results saved to db",
		zap.String("dialect", cfg.DB.Dialect),
		zap.String("table", table))

	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to TOML config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	runCmd.Flags().StringVar(&saveTable, "save-table", "", "also save the pivoted results to this db table")
	mapCmd.Flags().BoolVar(&showMaps, "show", false, "open each map in a browser")

	rootCmd.AddCommand(runCmd, mapCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
