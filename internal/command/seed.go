package command

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/brioso/stockroom/internal/devseed"
	"github.com/brioso/stockroom/internal/inventory"
)

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "seed",
		Short:  "Fill the store with fake data for development",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			seed := devseed.Seed()
			logger.InfoContext(cmd.Context(), "seeding corpus", slog.Uint64("seed", seed))
			svc := inventory.New(store, logger)
			return devseed.Populate(cmd.Context(), store, svc, seed)
		},
	}
}
