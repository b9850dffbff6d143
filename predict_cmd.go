package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xuechao-chen/RegressionForest/dataset"
)

type predictCmdConfig struct {
	*rootCmdConfig
	dataInput  string
	modelInput string
	output     string
	response   int
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a response for a set of samples",
		Long:  `Predict a response for every row of a CSV file holding only feature columns, using a fitted forest.`,
		Run: func(cmd *cobra.Command, args []string) {
			m, err := loadModel(config.modelInput)
			if err != nil {
				fatal(2, err)
			}
			config.Logf("Loaded forest %s with %d trees", m.Reg.ModelID, m.Reg.NTrees)

			in, err := openInput(config.dataInput)
			if err != nil {
				fatal(3, err)
			}
			defer in.Close()
			X, err := dataset.ReadFeatureCSV(in)
			if err != nil {
				fatal(3, "error parsing input data:", err)
			}

			pred, err := m.Predict(X, config.response)
			if err != nil {
				fatal(4, err)
			}

			o, err := createOutput(config.output)
			if err != nil {
				fatal(5, err)
			}
			defer o.Close()
			if err := writePred(o, pred); err != nil {
				fatal(5, "error writing predictions:", err)
			}
			config.Logf("Wrote %d predictions", len(pred))
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to a CSV file with the samples to predict (defaults to STDIN)")
	cmd.Flags().StringVarP(&(config.modelInput), "model", "f", "rf.model", "path to a fitted model")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to the file predictions are written to (defaults to STDOUT)")
	cmd.Flags().IntVar(&(config.response), "response", 0, "index of the response to predict")
	return cmd
}

func writePred(w io.Writer, prediction []string) error {
	wtr := bufio.NewWriter(w)

	for _, pred := range prediction {
		_, err := wtr.WriteString(pred)
		if err != nil {
			return err
		}

		err = wtr.WriteByte('\n')
		if err != nil {
			return err
		}
	}

	if err := wtr.Flush(); err != nil {
		return fmt.Errorf("flushing predictions: %v", err)
	}
	return nil
}
