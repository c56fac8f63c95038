package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	appref "github.com/turtacn/geometax/internal/application/refdata"
	"github.com/turtacn/geometax/internal/domain/normalize"
	infraref "github.com/turtacn/geometax/internal/infrastructure/refdata"
	"github.com/turtacn/geometax/internal/infrastructure/storage/minio"
)

// NewRefdataCmd creates the refdata command group: local corpus downloads and
// snapshot rebuilds, run in-process against the configured object store.  The
// sibling `reference` group drives the same lifecycle on a running server.
func NewRefdataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refdata",
		Short: "Download and rebuild reference corpora locally",
	}
	cmd.AddCommand(newRefdataUpdateCmd(), newRefdataRebuildCmd())
	return cmd
}

func newRefdataUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Download fresh corpus releases and rebuild the snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRefdata(cmd, true)
		},
	}
}

func newRefdataRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the snapshot from the stored corpora",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRefdata(cmd, false)
		},
	}
}

func runRefdata(cmd *cobra.Command, download bool) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := cliCtx.Logger

	store, err := minio.NewClient(&cliCtx.Config.MinIO, log)
	if err != nil {
		return err
	}
	defer store.Close()

	refStore := minio.NewReferenceStore(store, store.Buckets().Reference)
	service := appref.NewService(
		refStore,
		normalize.New(normalize.DefaultStopwords),
		appref.WithDownloader(infraref.NewDownloader(refStore)),
		appref.WithLogger(log),
	)

	if download {
		err = service.Update(ctx)
	} else {
		err = service.Rebuild(ctx)
	}
	if err != nil {
		return err
	}

	snap, err := service.Provider().Current()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"snapshot built: %d genes, %d TFs, %d CRs, %d/%d/%d ontology keys\n",
		snap.References.Genes.Len(),
		snap.References.TFs.Len(),
		snap.References.CRs.Len(),
		snap.Indexes.Cellosaurus.Len(),
		snap.Indexes.EFO.Len(),
		snap.Indexes.Uberon.Len())
	return nil
}
