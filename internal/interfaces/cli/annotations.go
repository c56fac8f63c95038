package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/turtacn/geometax/pkg/client"
)

// NewAnnotationsCmd creates the annotations command group.
func NewAnnotationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotations",
		Short: "Inspect persisted annotations",
	}
	cmd.AddCommand(newAnnotationsGetCmd(), newAnnotationsListCmd(), newAnnotationsDeleteCmd())
	return cmd
}

func newAnnotationsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <gsm-id>",
		Short: "Show the annotation for one sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			ann, err := cliCtx.Client.GetAnnotation(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, ann)
		},
	}
}

func newAnnotationsListCmd() *cobra.Command {
	var opts client.ListAnnotationsOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List annotations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			anns, err := cliCtx.Client.ListAnnotations(ctx, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, anns)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.SampleIDs, "sample-ids", nil, "filter by sample accessions")
	f.StringVar(&opts.Factor, "factor", "", "filter by extracted factor")
	f.IntVar(&opts.Limit, "limit", 20, "page size")
	f.IntVar(&opts.Offset, "offset", 0, "page offset")
	return cmd
}

func newAnnotationsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <gsm-id>",
		Short: "Delete the annotation for one sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			if err := cliCtx.Client.DeleteAnnotation(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// NewSearchCmd creates the full-text search command.
func NewSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search annotations by factor, term, or accession",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			results, err := cliCtx.Client.Search(ctx, args[0], limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, results)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}
