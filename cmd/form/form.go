package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abelzeko/water-quality/internal/api"
	"github.com/abelzeko/water-quality/internal/classifier"
	"github.com/abelzeko/water-quality/internal/config"
	"github.com/abelzeko/water-quality/internal/logging"
	"github.com/abelzeko/water-quality/internal/repository"
	"github.com/abelzeko/water-quality/internal/usecases"
)

type options struct {
	modelPath  string
	dbPath     string
	accessible bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "form",
		Short:         "Predict whether a water sample is safe or polluted",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.modelPath, "model", "", "model artifact path (overrides WQ_MODEL_PATH)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "station readings database (overrides WQ_DB_PATH)")
	root.Flags().BoolVar(&opts.accessible, "accessible", false, "plain prompts for screen readers")

	root.AddCommand(&cobra.Command{
		Use:   "stations",
		Short: "List monitoring stations with stored readings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStations(cmd, opts)
		},
	})
	return root
}

// setup loads the configuration with flag overrides applied and opens the log file
func setup(opts options) (config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if opts.modelPath != "" {
		cfg.Model.Path = opts.modelPath
	}
	if opts.dbPath != "" {
		cfg.DB.Path = opts.dbPath
	}

	// The form owns the terminal, so logs only go to the file
	logger, err := logging.New(logging.Options{
		Dir:        cfg.Logging.Dir,
		File:       "form.log",
		Level:      cfg.Logging.Level,
		Console:    false,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runForm(cmd *cobra.Command, opts options) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.Info("Starting Water Quality form...")

	// Load the model once; a missing or malformed artifact is fatal
	forest, err := classifier.LoadForest(cfg.Model.Path)
	if err != nil {
		logger.Errorf("Failed to load model: %v", err)
		return fmt.Errorf("failed to load model from %s: %w", cfg.Model.Path, err)
	}
	logger.Infof("Loaded model %s with %d trees", cfg.Model.Path, forest.Trees())

	evaluator := usecases.NewEvaluator(forest, logger)

	// Station readings are optional
	var stations *usecases.StationUseCase
	repo, err := repository.NewSQLiteStationRepository(cfg.DB.Path, logger)
	if err != nil {
		logger.Warnf("Station readings unavailable, continuing with manual entry: %v", err)
	} else {
		defer repo.Close()
		stations = usecases.NewStationUseCase(repo, nil, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := api.NewFormApp(evaluator, stations, logger, cmd.OutOrStdout(), opts.accessible)
	return app.Start(ctx)
}

func runStations(cmd *cobra.Command, opts options) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Close()

	repo, err := repository.NewSQLiteStationRepository(cfg.DB.Path, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	uc := usecases.NewStationUseCase(repo, nil, logger)
	names, err := uc.GetAvailableStations()
	if err != nil {
		return fmt.Errorf("failed to list stations: %w", err)
	}
	lastUpdate, err := uc.GetLastUpdateTime()
	if err != nil {
		return fmt.Errorf("failed to read last update time: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), api.RenderStations(names, lastUpdate))
	return nil
}
