package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.2.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pumpfade version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pumpfade", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
