package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in regforest's version
	VersionMajor = 0
	// VersionMinor is the minor number in regforest's version
	VersionMinor = 2
	// VersionPatch is the patch number in regforest's version
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of regforest",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("regforest v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
