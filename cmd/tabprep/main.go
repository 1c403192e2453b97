// Command tabprep runs the full preprocessing pipeline over a CSV dataset:
// it splits the rows into train/validation/test, fits every stage on the
// training split only, replays the fitted stages on the other splits and
// writes the three processed CSV files.
package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tabprep/tabprep/dataset"
	"github.com/tabprep/tabprep/pipeline"
	"github.com/tabprep/tabprep/pkg/errors"
	"github.com/tabprep/tabprep/pkg/log"
	"github.com/tabprep/tabprep/preprocessing"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "tabprep",
		Short:   "Leak-free tabular preprocessing for classifier training",
		Version: version,
	}

	rootCmd.AddCommand(processCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func processCmd() *cobra.Command {
	var (
		input       string
		outputDir   string
		target      string
		idColumn    string
		dateColumns []string
		logLevel    string

		testSize float64
		valSize  float64
		seed     int64

		maxOneHot       int
		maxDetailed     int
		rareMinFreq     int
		highCardMinFreq int

		varianceThreshold    float64
		correlationThreshold float64
		normalizeMethod      string
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Fit the pipeline on the training split and transform all splits",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetupLogger(log.NewZerologProvider(log.ToLogLevel(logLevel)))
			logger := log.GetLoggerWithName("tabprep")

			t, err := dataset.ReadCSV(input)
			if err != nil {
				return err
			}
			logger.Info("dataset loaded",
				log.SamplesKey, t.NumRows(),
				log.FeaturesKey, t.NumCols(),
			)

			split, err := dataset.TrainValTestSplit(t, target, testSize, valSize, seed)
			if err != nil {
				return err
			}

			protected := append([]string{idColumn, target}, dateColumns...)

			encCfg := preprocessing.DefaultConfig()
			encCfg.MaxOneHotCategories = maxOneHot
			encCfg.MaxDetailedCategories = maxDetailed
			encCfg.RareMinFrequency = rareMinFreq
			encCfg.HighCardinalityMinFrequency = highCardMinFreq
			encCfg.TargetColumn = target
			encCfg.ProtectedColumns = protected

			p := pipeline.New(
				pipeline.Step{Name: "clean", Stage: preprocessing.NewCleaner(preprocessing.CleanerConfig{
					SkipColumns:    []string{idColumn, target},
					OutlierExclude: dateColumns,
				})},
				pipeline.Step{Name: "encode", Stage: preprocessing.NewCategoricalEncoder(encCfg)},
				pipeline.Step{Name: "filter", Stage: preprocessing.NewFilter(preprocessing.FilterConfig{
					VarianceThreshold:    varianceThreshold,
					CorrelationThreshold: correlationThreshold,
					TargetColumn:         target,
				})},
				pipeline.Step{Name: "normalize", Stage: preprocessing.NewNormalizer(preprocessing.NormalizerConfig{
					Method:         preprocessing.NormalizeMethod(normalizeMethod),
					ExcludeColumns: []string{idColumn, target},
				})},
			)

			train, err := p.FitTransform(split.Train)
			if err != nil {
				return errors.Wrap(err, "fitting pipeline on training split")
			}
			val, err := p.Transform(split.Val)
			if err != nil {
				return errors.Wrap(err, "transforming validation split")
			}
			test, err := p.Transform(split.Test)
			if err != nil {
				return errors.Wrap(err, "transforming test split")
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return errors.Wrap(err, "creating output directory")
			}
			if err := dataset.WriteCSV(filepath.Join(outputDir, "train.csv"), train); err != nil {
				return err
			}
			if err := dataset.WriteCSV(filepath.Join(outputDir, "val.csv"), val); err != nil {
				return err
			}
			if err := dataset.WriteCSV(filepath.Join(outputDir, "test.csv"), test); err != nil {
				return err
			}

			logger.Info("pipeline completed",
				log.SamplesKey, train.NumRows()+val.NumRows()+test.NumRows(),
				log.FeaturesKey, train.NumCols(),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input CSV file (required)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "processed", "directory for train/val/test CSV output")
	cmd.Flags().StringVarP(&target, "target", "t", "target", "binary target column name")
	cmd.Flags().StringVar(&idColumn, "id-column", "", "identifier column excluded from encoding and scaling")
	cmd.Flags().StringSliceVar(&dateColumns, "date-columns", nil, "raw date columns excluded from encoding")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.Flags().Float64Var(&testSize, "test-size", 0.2, "fraction of rows held out for the test split")
	cmd.Flags().Float64Var(&valSize, "val-size", 0.1, "fraction of rows held out for the validation split")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for the stratified split")

	cmd.Flags().IntVar(&maxOneHot, "max-onehot", 3, "largest cardinality that still gets one-hot encoding")
	cmd.Flags().IntVar(&maxDetailed, "max-detailed", 10, "largest cardinality that still gets target+frequency encoding")
	cmd.Flags().IntVar(&rareMinFreq, "rare-min-freq", 100, "occurrence count below which a category is rare")
	cmd.Flags().IntVar(&highCardMinFreq, "high-card-min-freq", 50, "rare threshold retried on high-cardinality columns")

	cmd.Flags().Float64Var(&varianceThreshold, "variance-threshold", 0.01, "minimum feature variance")
	cmd.Flags().Float64Var(&correlationThreshold, "correlation-threshold", 0.95, "maximum absolute feature correlation")
	cmd.Flags().StringVar(&normalizeMethod, "normalize-method", "standard", "scaling method (standard, minmax, robust)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}
