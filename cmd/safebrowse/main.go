package main

import (
	"fmt"
	"os"

	"safebrowse/internal/handler"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:          "safebrowse",
	Short:        "Safe browsing gate for children",
	Long:         "safebrowse screens every search and visit through a local denylist and an external classifier, and records the result for a parental dashboard.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("safebrowse v" + version)
	},
}

func init() {
	handler.Version = version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yml", "Path to the YAML config file")
	rootCmd.AddCommand(versionCmd, serveCmd, checkCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
