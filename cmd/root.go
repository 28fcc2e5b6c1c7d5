package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-registry",
	Short: "Identify, verify and enroll people by face descriptor",
	Long: `Face Registry keeps a registry of enrolled 128-value face descriptors and
decides whether a new descriptor belongs to a known person, matches a claimed
name, or may be enrolled as a new identity.

Descriptors are produced by an upstream feature extractor; this tool never
handles images. Storage is PostgreSQL (pgvector), MariaDB or in-memory,
selected with DATABASE_DRIVER.`,
	SilenceUsage: true,
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
