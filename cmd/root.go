package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-registry",
	Short: "A face embedding registry with duplicate detection",
	Long: `Face Registry stores face descriptors for enrolled subjects and
matches incoming descriptors against them. Enrollment rejects faces that
are too close to an already enrolled subject; verification identifies the
closest enrolled subject within a looser threshold.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
