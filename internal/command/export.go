package command

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brioso/stockroom/internal/inventory"
)

func exportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the inventory valuation as CSV",
		Args:  cobra.NoArgs,
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

			out := os.Stdout
			if output != "" {
				out, err = os.Create(output)
				if err != nil {
					return err
				}
				defer func() {
					if err := out.Close(); err != nil {
						runErr = errors.Join(runErr, err)
					}
				}()
			}

			svc := inventory.New(store, logger)
			if err := svc.ExportCSV(cmd.Context(), out); err != nil {
				return err
			}
			if output != "" {
				logger.InfoContext(cmd.Context(), "inventory exported",
					slog.String("path", output),
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the CSV to a file instead of stdout")
	return cmd
}
