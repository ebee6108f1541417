package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "distserve",
	Short: "distserve – serve a dist directory over HTTP",
	Long: "distserve serves the dist directory next to its binary on port 8000.\n" +
		"Directories are answered with their index.html or a generated listing.",
	Args:          cobra.NoArgs,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configPath is shared by every subcommand that loads the configuration.
var configPath string

func init() {
	// gin's debug mode prints route tables to stdout.
	gin.SetMode(gin.ReleaseMode)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: distserve.yaml next to the binary)")
	addServeFlags(rootCmd.Flags())
	rootCmd.Flags().BoolP("open", "o", false, "open the browser after start")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "distserve:", err)
		os.Exit(1)
	}
}
