package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/pkg/errors"
)

// NewJobsCmd creates the jobs command group: batch jobs against a running
// API server.
func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Submit and inspect batch extraction jobs",
	}
	cmd.AddCommand(newJobsSubmitCmd(), newJobsGetCmd(), newJobsListCmd())
	return cmd
}

func newJobsSubmitCmd() *cobra.Command {
	var mappingPath, mode string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a batch job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			m := annotation.Mode(mode)
			if !m.IsValid() {
				return errors.New(errors.ErrCodeValidation, "mode must be factor, ontology, or both").
					WithDetail(mode)
			}
			mapping, err := readMapping(mappingPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			job, err := cliCtx.Client.SubmitJob(ctx, m, mapping)
			if err != nil {
				return err
			}
			return PrintResult(cmd, job)
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "path to the GSM-to-GSE mapping JSON (required)")
	cmd.Flags().StringVar(&mode, "mode", string(annotation.ModeBoth), "extraction mode (factor, ontology, both)")
	_ = cmd.MarkFlagRequired("mapping")
	return cmd
}

func newJobsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			job, err := cliCtx.Client.GetJob(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, job)
		},
	}
}

func newJobsListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			jobs, err := cliCtx.Client.ListJobs(ctx, limit, offset)
			if err != nil {
				return err
			}
			return PrintResult(cmd, jobs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}
