package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose bool
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "regforest",
		Short: "regforest grows random forests of regression trees",
		Long:  `A tool to grow random forests of regression trees from numeric data, inspect them, export them and use them to make predictions`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log progress to stderr")
	rootCmd.AddCommand(versionCmd(), growCmd(config), predictCmd(config), infoCmd(config), exportCmd(config))
	return rootCmd
}

func (rcc *rootCmdConfig) Logf(format string, a ...interface{}) {
	logger(rcc.verbose).Logf(format, a...)
}

func loadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model file %s: %v", path, err)
	}
	defer f.Close()

	m := new(Model)
	if err := m.Load(f); err != nil {
		return nil, fmt.Errorf("loading model from %s: %v", path, err)
	}
	return m, nil
}

// openInput opens path for reading, or returns stdin for an empty path.
func openInput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v", path, err)
	}
	return f, nil
}

// createOutput creates path for writing, or returns stdout for an empty path.
func createOutput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %v", path, err)
	}
	return f, nil
}

func fatal(code int, a ...interface{}) {
	fmt.Fprintln(os.Stderr, a...)
	os.Exit(code)
}
