package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/forest"
)

type infoCmdConfig struct {
	*rootCmdConfig
	dataInput  string
	modelInput string
}

func infoCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &infoCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show statistics on the trees of a forest",
		Long:  `Show node counts, split counts per feature and out of bag counts of a fitted forest, given the training set it was grown from.`,
		Run: func(cmd *cobra.Command, args []string) {
			m, err := loadModel(config.modelInput)
			if err != nil {
				fatal(2, err)
			}

			in, err := openInput(config.dataInput)
			if err != nil {
				fatal(3, err)
			}
			defer in.Close()
			ts, err := dataset.ReadCSV(in, m.Reg.NumResponses)
			if err != nil {
				fatal(3, "reading training set:", err)
			}
			if ts.NumFeatures() != m.Reg.NumFeatures {
				fatal(3, fmt.Sprintf("training set has %d features, forest was grown on %d", ts.NumFeatures(), m.Reg.NumFeatures))
			}

			writeInfo(os.Stdout, m, m.Reg.Info(ts))
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to the CSV file the forest was grown from (defaults to STDIN)")
	cmd.Flags().StringVarP(&(config.modelInput), "model", "f", "rf.model", "path to a fitted model")
	return cmd
}

func writeInfo(w io.Writer, m *Model, info forest.Info) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "Model:          %s\n", m.Reg.ModelID)
	p.Fprintf(w, "Trees:          %d\n", info.NumTrees)
	p.Fprintf(w, "Nodes:          %d\n", info.NumNodes)
	p.Fprintf(w, "Leaves:         %d\n", info.NumLeafNodes)
	p.Fprintf(w, "Unfitted:       %d\n", info.NumUnfittedLeafNodes)
	if info.NumTrees > 0 {
		p.Fprintf(w, "Mean leaves:    %.1f\n", float64(info.NumLeafNodes)/float64(info.NumTrees))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Splits per feature\n")
	fmt.Fprintf(w, "------------------\n")
	for i, c := range info.FeatureSplitTimes {
		p.Fprintf(w, "%-15s: %d\n", m.varName(i), c)
	}
	fmt.Fprintln(w)

	never := 0
	for _, c := range info.InstanceOOBTimes {
		if c == 0 {
			never++
		}
	}
	p.Fprintf(w, "Samples never out of bag: %d of %d\n", never, len(info.InstanceOOBTimes))
}
