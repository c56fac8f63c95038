package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewReferenceCmd creates the reference command group: snapshot status and
// rebuilds on a running API server.
func NewReferenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Inspect and rebuild the resolver reference data",
	}
	cmd.AddCommand(newReferenceStatusCmd(), newReferenceRebuildCmd())
	return cmd
}

func newReferenceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the live reference snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			status, err := cliCtx.Client.ReferenceStatus(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, status)
		},
	}
}

func newReferenceRebuildCmd() *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Trigger a reference snapshot rebuild",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			if err := cliCtx.Client.RebuildReference(ctx, download); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rebuild accepted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "re-fetch corpus releases before rebuilding")
	return cmd
}
