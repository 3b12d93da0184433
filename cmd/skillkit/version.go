package main

import (
	"fmt"

	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of skillkit in JSON format.`,
	Run: func(_ *cobra.Command, _ []string) {
		out, err := version.Get().JSON()
		if err != nil {
			presenter.Error(err, "Failed to format version info")
			exit(1)
		}
		fmt.Println(out)
	},
}
