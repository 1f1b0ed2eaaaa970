package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"farm-registry/internal/domain/farms"
	"farm-registry/internal/router"
	"farm-registry/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCommand(root *rootOptions) *cobra.Command {
	var (
		owners  []string
		randSrc int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo farms (2 per owner, 3 animals each)",
		Long: `Create demo data for one or more owners.

Each owner gets 2 farms with 3 animals of random types and random
10-digit animal numbers. Needs a persistent driver (sqlite or postgres).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(owners) == 0 {
				return errors.New("at least one --owner is required")
			}

			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "memory" {
				return errors.New("seed needs --driver sqlite or postgres")
			}

			store, err := router.OpenStorage(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			if randSrc == 0 {
				randSrc = time.Now().UnixNano()
			}
			svc := farms.NewService(store.Farms, farms.Options{Logger: log})
			seeder := seed.New(svc, rand.New(rand.NewSource(randSrc)))

			for _, owner := range owners {
				created, err := seeder.Owner(cmd.Context(), owner)
				if err != nil {
					return fmt.Errorf("seeding %s: %w", owner, err)
				}
				for _, f := range created {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d animals\n", owner, f.ID, f.Name, len(f.Animals))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&owners, "owner", nil, "owner user id (repeatable)")
	cmd.Flags().Int64Var(&randSrc, "rand-seed", 0, "random seed (default: time based)")
	return cmd
}
