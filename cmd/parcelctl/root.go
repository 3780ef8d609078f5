package main

import (
	"fmt"
	"os"

	"github.com/BearBump/ParcelBox/config"
	"github.com/BearBump/ParcelBox/internal/bootstrap"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/services/orders"
	"github.com/spf13/cobra"
)

// env holds what every subcommand works against.
type env struct {
	store    *orders.Store
	carriers tracking.CarrierLister
	locale   models.Locale
	close    func()
}

type opener func(cfgPath string) (*env, error)

func defaultOpener(cfgPath string) (*env, error) {
	cfg := &config.Config{}
	if cfgPath != "" {
		var err error
		if cfg, err = config.LoadConfig(cfgPath); err != nil {
			return nil, err
		}
	}
	bootstrap.SetupLogger(cfg.Log.Level)

	kv, closeKV, err := bootstrap.OpenKV(cfg)
	if err != nil {
		return nil, err
	}
	p := bootstrap.NewProvider(cfg, nil, 0)
	return &env{
		store:    bootstrap.NewStore(cfg, kv, p),
		carriers: p.Carriers,
		locale:   bootstrap.DefaultLocale(cfg),
		close:    closeKV,
	}, nil
}

func newRootCmd(open opener) *cobra.Command {
	var cfgPath string
	var e *env

	root := &cobra.Command{
		Use:          "parcelctl",
		Short:        "Manage tracked parcels",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			e, err = open(cfgPath)
			if err != nil {
				return fmt.Errorf("open order store: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e != nil && e.close != nil {
				e.close()
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("configPath"), "path to the YAML config")

	current := func() *env { return e }
	root.AddCommand(
		newAddCmd(current),
		newListCmd(current),
		newEditCmd(current),
		newRemoveCmd(current),
		newClearCmd(current),
		newRefreshCmd(current),
		newCountsCmd(current),
		newTrackCmd(current),
		newCarriersCmd(current),
	)
	return root
}
