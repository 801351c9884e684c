package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promociones-residenciales/reservas/backend/service"
)

var (
	renderReservation string
	renderOut         string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the unsigned contract of a reservation to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		contracts := service.NewContractService(store, nil, newRenderer(), cfg)
		pdf, data, err := contracts.GenerateContract(ctx, renderReservation)
		if err != nil {
			return err
		}

		out := renderOut
		if out == "" {
			out = data.Number + ".pdf"
		}
		if err := os.WriteFile(out, pdf, 0o644); err != nil {
			return fmt.Errorf("failed to write contract: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s written (%d bytes)\n", out, len(pdf))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderReservation, "reservation", "r", "", "reservation id")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (defaults to <contract number>.pdf)")
	_ = renderCmd.MarkFlagRequired("reservation")
}
