package cmd

import (
	"fmt"
	"os"

	"treesafe/internal/application"
	"treesafe/internal/backup"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// CLI flag variables shared across subcommands
var (
	verbose     bool
	quiet       bool
	autoApprove bool
	logFile     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "treesafe",
	Short: "Archive, encrypt and restore directory trees",
	Long: `Treesafe backs up directory trees into compressed, optionally
encrypted archives and restores them again.

A backup job runs source validation, optional change detection against
a per-destination checkpoint, archiving, optional encryption and a
checkpoint update as one pipeline. Restore runs the inverse: decrypt,
detect the archive format, extract.

Examples:
  # Full backup of a tree into a gzip tar
  treesafe backup --source /data/projects --destination /backups

  # Incremental backup, only files changed since the last checkpoint
  treesafe backup --source /data/projects --destination /backups --incremental

  # Encrypted backup, passphrase prompted on the terminal
  treesafe backup --source /data/projects --destination /backups \
                  --encrypt aes-256-cbc

  # Restore an encrypted archive
  treesafe restore --archive /backups/projects_20260301T120000.tar.gz.enc \
                   --destination /data/projects --key-env TREESAFE_KEY

  # Inspect or reset the change-detection checkpoint
  treesafe checkpoint show /backups
  treesafe checkpoint clear /backups`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.treesafe.yaml)")

	// Operation flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&autoApprove, "auto-approve", false, "skip interactive confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file instead of stderr")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("auto_approve", rootCmd.PersistentFlags().Lookup("auto-approve"))
	viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".treesafe" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".treesafe")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("TREESAFE")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// newApplication builds the application from the merged viper state and
// the persistent flags.
func newApplication() (*application.Application, error) {
	if verbose && quiet {
		return nil, fmt.Errorf("--verbose and --quiet flags are mutually exclusive")
	}

	var config backup.SystemConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	app, err := application.NewApplication(config, application.Options{
		Verbose:     verbose,
		Quiet:       quiet,
		AutoApprove: autoApprove,
		LogFile:     logFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return app, nil
}
