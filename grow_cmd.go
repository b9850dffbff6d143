package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	rfconfig "github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/forest"
)

type growCmdConfig struct {
	*rootCmdConfig
	dataInput   string
	configInput string
	output      string
	impOutput   string
	nTrees      int
	nWorkers    int
	seed        int64
	oob         bool
	earlyStop   bool
	runProfile  bool
	metricsAddr string
	profileDir  string
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow a forest from a set of data",
		Long:  `Grow a random forest of regression trees from a CSV file whose leading columns are the responses to predict.`,

		// the profile is only written by the deferred Stop, so no os.Exit below
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.runProfile {
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(config.profileDir), profile.Quiet, profile.NoShutdownHook).Stop()
			}
			return config.run(cmd.Flags().Changed("seed"))
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV file with the training data (defaults to STDIN)")
	cmd.Flags().StringVarP(&(config.configInput), "config", "c", "", "path to a YML file with the attributes used to grow each tree")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "rf.model", "path to the file the fitted model is written to")
	cmd.Flags().StringVar(&(config.impOutput), "var-importance", "", "path to a CSV file to output variable importance estimates")
	cmd.Flags().IntVar(&(config.nTrees), "trees", 0, "number of trees (defaults to the num_trees attribute, or 10)")
	cmd.Flags().IntVar(&(config.nWorkers), "workers", 1, "number of workers for fitting trees")
	cmd.Flags().Int64Var(&(config.seed), "seed", 0, "seed for reproducible forests (defaults to a time based seed)")
	cmd.Flags().BoolVar(&(config.oob), "oob", true, "estimate the error of the first response on out of bag samples")
	cmd.Flags().BoolVar(&(config.earlyStop), "early-stop", false, "stop adding trees once the out of bag error converges")
	cmd.Flags().BoolVar(&(config.runProfile), "profile", false, "write a cpu profile")
	cmd.Flags().StringVar(&(config.profileDir), "profile-dir", ".", "directory the cpu profile is written to")
	cmd.Flags().StringVar(&(config.metricsAddr), "metrics-addr", "", "address to serve prometheus metrics on while growing, e.g. :9090")
	return cmd
}

func (gcc *growCmdConfig) run(seeded bool) error {
	if gcc.nWorkers > 1 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}
	if gcc.metricsAddr != "" {
		gcc.serveMetrics()
	}

	cfg, err := gcc.attributes()
	if err != nil {
		return err
	}
	ts, err := gcc.trainingSet(cfg.IntOr(rfconfig.NumResponses, 1))
	if err != nil {
		return err
	}

	opts := []forest.Option{
		forest.WithConfig(cfg),
		forest.WithLogger(logger(gcc.verbose)),
		forest.NumWorkers(gcc.nWorkers),
	}
	if gcc.nTrees > 0 {
		opts = append(opts, forest.NumTrees(gcc.nTrees))
	}
	if seeded {
		opts = append(opts, forest.Seed(gcc.seed))
	}
	if gcc.oob {
		opts = append(opts, forest.ComputeOOB())
	}
	if gcc.earlyStop {
		opts = append(opts, forest.EarlyStop())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gcc.Logf("Growing forest from %d samples with %d features and %d responses...",
		ts.NumInstances(), ts.NumFeatures(), ts.NumResponses())
	m := new(Model)
	if err := m.Fit(ctx, ts, opts...); err != nil {
		return fmt.Errorf("growing the forest: %v", err)
	}
	gcc.Logf("Done")

	if err := gcc.save(m); err != nil {
		return err
	}
	m.Report(os.Stderr)
	return nil
}

func (gcc *growCmdConfig) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	gcc.Logf("Serving metrics on %s/metrics", gcc.metricsAddr)
	go func() {
		if err := http.ListenAndServe(gcc.metricsAddr, mux); err != nil {
			fmt.Fprintln(os.Stderr, "serving metrics:", err)
		}
	}()
}

func (gcc *growCmdConfig) attributes() (*rfconfig.Config, error) {
	if gcc.configInput == "" {
		return rfconfig.New(nil), nil
	}
	gcc.Logf("Reading attributes from %s...", gcc.configInput)
	return rfconfig.Load(gcc.configInput)
}

func (gcc *growCmdConfig) trainingSet(numResponses int) (*dataset.TrainingSet, error) {
	if gcc.dataInput == "" {
		gcc.Logf("Reading training set from STDIN...")
	} else {
		gcc.Logf("Opening %s to read training set...", gcc.dataInput)
	}
	f, err := openInput(gcc.dataInput)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ts, err := dataset.ReadCSV(f, numResponses)
	if err != nil {
		return nil, fmt.Errorf("reading training set: %v", err)
	}
	return ts, nil
}

func (gcc *growCmdConfig) save(m *Model) error {
	o, err := os.Create(gcc.output)
	if err != nil {
		return fmt.Errorf("saving model: %v", err)
	}
	defer o.Close()
	if err := m.Save(o); err != nil {
		return fmt.Errorf("saving model: %v", err)
	}

	if gcc.impOutput == "" {
		return nil
	}
	f, err := os.Create(gcc.impOutput)
	if err != nil {
		return fmt.Errorf("saving variable importance: %v", err)
	}
	defer f.Close()
	if err := m.SaveVarImp(f); err != nil {
		return fmt.Errorf("saving variable importance: %v", err)
	}
	return nil
}
