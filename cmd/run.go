package main

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/cost"
	"github.com/GiovanniGatti/trutheval/internal/export"
	"github.com/GiovanniGatti/trutheval/internal/fetcher"
	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/pipeline"
	"github.com/GiovanniGatti/trutheval/internal/reader"
	"github.com/GiovanniGatti/trutheval/internal/stopwords"
	"github.com/GiovanniGatti/trutheval/internal/store"
)

var (
	runInput   string
	runOutput  string
	runXLSX    bool
	runNoStore bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a benchmark from a question/answer file",
	Long: "Reads question/ground-truth pairs (a JSON array of objects, or a CSV, TSV or XLSX sheet with " +
		"question and ground_truth columns; local path, http(s) or ftp URL), runs every record through " +
		"the benchmark steps and writes report.json and dataset.json to the output directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applyRunFlags(cmd)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		stop, err := stopwords.Load(cfg.Pipeline.StopWordsFile)
		if err != nil {
			return err
		}

		completer, err := newCompleter(ctx, cfg)
		if err != nil {
			return err
		}
		provider := cost.Provider(cfg.Oracle.Provider)
		ledger := cost.NewLedger(cost.NewCalculator(cfg.Pricing.Rates()), provider, cfg.Model())

		steps, err := buildSteps(completer, ledger, cfg.Pipeline, stop)
		if err != nil {
			return err
		}
		p, err := pipeline.New(steps, pipeline.WithConcurrency(cfg.Pipeline.Concurrency))
		if err != nil {
			return err
		}

		src, err := reader.Open(runInput, fetcher.Options{})
		if err != nil {
			return err
		}

		var st store.Store
		if !runNoStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		_, err = executeRun(ctx, runJob{
			pipeline: p,
			reader:   src,
			store:    st,
			ledger:   ledger,
			outDir:   runOutput,
			xlsx:     runXLSX,
			meta: model.RunMeta{
				InputFile: runInput,
				Config: model.RunConfig{
					Keep:       cfg.Pipeline.Keep,
					Levels:     cfg.Pipeline.Levels,
					MaxRetries: cfg.Pipeline.MaxRetries,
					Provider:   cfg.Oracle.Provider,
					Model:      cfg.Model(),
					Seed:       cfg.Pipeline.Seed,
				},
			},
		})
		return err
	},
}

// applyRunFlags lets explicit flags override the loaded pipeline settings.
func applyRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("keep") {
		cfg.Pipeline.Keep, _ = flags.GetFloat64("keep")
	}
	if flags.Changed("levels") {
		cfg.Pipeline.Levels, _ = flags.GetInt("levels")
	}
	if flags.Changed("seed") {
		cfg.Pipeline.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("concurrency") {
		cfg.Pipeline.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("stop-words") {
		cfg.Pipeline.StopWordsFile, _ = flags.GetString("stop-words")
	}
	if flags.Changed("provider") {
		cfg.Oracle.Provider, _ = flags.GetString("provider")
	}
}

// runJob is everything one benchmark run needs once dependencies are built.
type runJob struct {
	pipeline *pipeline.Pipeline
	reader   pipeline.Reader
	store    store.Store // nil disables run history
	ledger   *cost.Ledger
	meta     model.RunMeta
	outDir   string
	xlsx     bool
}

// executeRun runs the pipeline, writes the outputs and records the run in
// the store. A failed run is marked failed with the error message.
func executeRun(ctx context.Context, job runJob) (*model.Report, error) {
	var runID string
	if job.store != nil {
		run, err := job.store.CreateRun(ctx, job.meta)
		if err != nil {
			return nil, eris.Wrap(err, "create run")
		}
		runID = run.ID
	}
	log := zap.L().With(zap.String("run_id", runID), zap.String("input", job.meta.InputFile))

	report, err := job.produce(ctx)
	if err != nil {
		log.Error("benchmark run failed", zap.Error(err))
		if job.store != nil {
			if ferr := job.store.FailRun(context.WithoutCancel(ctx), runID, err.Error()); ferr != nil {
				log.Warn("failed to record run failure", zap.Error(ferr))
			}
		}
		return nil, err
	}

	job.ledger.Log()
	if job.store != nil {
		if err := job.store.CompleteRun(ctx, runID, report, job.ledger.Total()); err != nil {
			return nil, eris.Wrap(err, "complete run")
		}
	}

	log.Info("benchmark run complete",
		zap.Int("records", len(report.Questions)),
		zap.Int("dataset_items", len(report.ToDataset().Questions)),
		zap.Any("counters", report.Report),
		zap.Float64("estimated_cost_usd", job.ledger.Total()),
		zap.String("output", job.outDir),
	)
	return report, nil
}

func (j runJob) produce(ctx context.Context) (*model.Report, error) {
	records, tracker, err := j.pipeline.Run(ctx, j.reader)
	if err != nil {
		return nil, err
	}
	report := pipeline.NewReport(records, tracker)

	ds, err := export.WriteJSON(j.outDir, report)
	if err != nil {
		return nil, err
	}
	if j.xlsx {
		if err := export.WriteXLSX(filepath.Join(j.outDir, export.XLSXFile), ds); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "input file or URL: .json, .csv, .tsv or .xlsx (required)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output directory (required)")
	runCmd.Flags().Float64P("keep", "k", 0.8, "fraction of ranked spans kept for corruption")
	runCmd.Flags().IntP("levels", "l", 5, "number of corruption levels")
	runCmd.Flags().Uint64("seed", 0, "seed for group shuffling (0 = time based)")
	runCmd.Flags().Int("concurrency", 1, "records processed in parallel")
	runCmd.Flags().String("stop-words", "", "YAML stop word list (default: embedded English list)")
	runCmd.Flags().String("provider", "", "oracle provider (anthropic, gemini)")
	runCmd.Flags().BoolVar(&runXLSX, "xlsx", false, "also write dataset.xlsx for human evaluation")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "do not record the run in the store")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(runCmd)
}
