package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/turtacn/geometax/internal/application/extraction"
	appref "github.com/turtacn/geometax/internal/application/refdata"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/factor"
	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/domain/sample"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/internal/infrastructure/storage/minio"
	"github.com/turtacn/geometax/internal/oracle"
	"github.com/turtacn/geometax/pkg/errors"
)

// extractOptions holds the extract command flags.
type extractOptions struct {
	MappingPath string
	Mode        string
	OutputPath  string
	Workers     int
}

// NewExtractCmd creates the extract command: a full local pipeline run that
// reads the sample mapping from a file and writes the annotation document,
// without going through the API server or the job queue.
func NewExtractCmd() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Annotate a batch of samples locally",
		Long:  "Reads a JSON mapping of sample accessions to their series accessions,\nruns factor and ontology extraction for every sample, and writes the\nresulting annotation document.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.MappingPath, "mapping", "m", "", "path to the GSM-to-GSE mapping JSON (required)")
	f.StringVar(&opts.Mode, "mode", string(annotation.ModeBoth), "extraction mode (factor, ontology, both)")
	f.StringVarP(&opts.OutputPath, "out", "O", "", "output file (default: stdout)")
	f.IntVar(&opts.Workers, "workers", extraction.DefaultWorkers, "concurrent samples")
	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg := cliCtx.Config
	log := cliCtx.Logger

	mode := annotation.Mode(opts.Mode)
	if !mode.IsValid() {
		return errors.New(errors.ErrCodeValidation, "mode must be factor, ontology, or both").
			WithDetail(opts.Mode)
	}

	mapping, err := readMapping(opts.MappingPath)
	if err != nil {
		return err
	}
	if len(mapping) == 0 {
		return errors.New(errors.ErrCodeValidation, "mapping file contains no samples")
	}

	store, err := minio.NewClient(&cfg.MinIO, log)
	if err != nil {
		return err
	}
	defer store.Close()

	refService := appref.NewService(
		minio.NewReferenceStore(store, cfg.MinIO.Buckets.Reference),
		normalize.New(normalize.DefaultStopwords),
		appref.WithLogger(log),
	)
	if err := refService.MustLoad(ctx); err != nil {
		return err
	}
	snap, err := refService.Provider().Current()
	if err != nil {
		return err
	}

	orc, err := oracle.New(cfg.Oracle.Config, log)
	if err != nil {
		return err
	}

	svc := extraction.NewService(
		orc,
		factor.NewResolver(snap.References, factor.DefaultHistoneGrammar(), orc, factor.WithLogger(log)),
		ontology.NewResolver(snap.Indexes, normalize.New(normalize.DefaultStopwords), orc),
		sample.NewLoader(minio.NewRecordStore(store, cfg.MinIO.Buckets.Records), log),
		extraction.WithWorkers(opts.Workers),
		extraction.WithSampleTimeout(cfg.Worker.SampleTimeout),
		extraction.WithLogger(log),
	)

	result, err := svc.ProcessBatch(ctx, mapping, mode)
	if err != nil {
		return err
	}
	log.Info("batch finished",
		logging.Int("completed", result.Completed),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed))

	return writeOutput(cmd, opts.OutputPath, result.Output)
}

// readMapping parses the GSM-to-GSE mapping file.
func readMapping(path string) (sample.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read mapping file").
			WithDetail(path)
	}
	var mapping sample.Mapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "mapping file is not valid JSON").
			WithDetail(path)
	}
	return mapping, nil
}

// writeOutput writes the annotation document to the output path or stdout.
func writeOutput(cmd *cobra.Command, path string, out extraction.Output) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode output")
	}
	data = append(data, '\n')

	if path == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write output file").
			WithDetail(path)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d annotated samples to %s\n", len(out), path)
	return nil
}
