package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"treesafe/internal/backup"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	// Backup creation flags
	backupSource      string
	backupDestination string
	backupBaseName    string
	backupDescription string
	backupCodec       string
	backupIncremental bool
	backupEncrypt     string
	backupKeyEnv      string
	backupJobFile     string
)

// jobFileSpec mirrors the backup flags for --job-file YAML input.
type jobFileSpec struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	BaseName    string `yaml:"base_name"`
	Description string `yaml:"description"`
	Codec       string `yaml:"codec"`
	Incremental bool   `yaml:"incremental"`
	Encrypt     string `yaml:"encrypt"`
	KeyEnv      string `yaml:"key_env"`
}

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a backup archive of a directory tree",
	Long: `Create a backup archive of a directory tree.

The job validates the source and destination, optionally detects changes
against the destination's checkpoint, archives with the selected codec,
optionally encrypts the artifact and finally advances the checkpoint.

An incremental run with no changed files ends as a no-change outcome and
produces no artifact.

Examples:
  # Full backup with the default codec
  treesafe backup --source /data/projects --destination /backups

  # Incremental zip backup with a custom artifact base name
  treesafe backup --source /data/projects --destination /backups \
                  --codec zip --base-name projects --incremental

  # Encrypted backup with the key taken from an environment variable
  treesafe backup --source /data/projects --destination /backups \
                  --encrypt chacha20 --key-env TREESAFE_KEY

  # Job parameters from a YAML file
  treesafe backup --job-file nightly.yaml`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&backupSource, "source", "", "directory tree to back up")
	backupCmd.Flags().StringVar(&backupDestination, "destination", "", "directory receiving the artifact")
	backupCmd.Flags().StringVar(&backupBaseName, "base-name", "", "artifact base name (default from config, then \"backup\")")
	backupCmd.Flags().StringVar(&backupDescription, "description", "", "free-form job description recorded in the manifest")
	backupCmd.Flags().StringVar(&backupCodec, "codec", "", "archive codec: none, gzip, bzip2, zip, zstd, lz4")
	backupCmd.Flags().BoolVar(&backupIncremental, "incremental", false, "archive only files changed since the last checkpoint")
	backupCmd.Flags().StringVar(&backupEncrypt, "encrypt", "", "encrypt the artifact: aes-256-cbc or chacha20")
	backupCmd.Flags().StringVar(&backupKeyEnv, "key-env", "", "environment variable holding the encryption key")
	backupCmd.Flags().StringVar(&backupJobFile, "job-file", "", "YAML file with job parameters, overridden by explicit flags")
}

// runBackup is the main execution function for the backup command
func runBackup(cmd *cobra.Command, args []string) error {
	if backupJobFile != "" {
		if err := applyJobFile(cmd, backupJobFile); err != nil {
			return err
		}
	}

	if backupSource == "" || backupDestination == "" {
		return fmt.Errorf("both --source and --destination are required")
	}

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	codec := backupCodec
	if codec == "" {
		codec = viper.GetString("defaults.codec")
	}
	baseName := backupBaseName
	if baseName == "" {
		baseName = viper.GetString("defaults.base_name")
	}

	builder := backup.NewJobBuilder().
		Source(backupSource).
		Destination(backupDestination).
		BaseName(baseName).
		Description(backupDescription).
		Codec(codec).
		Incremental(backupIncremental)

	if backupEncrypt != "" {
		key, err := resolveKey(backupKeyEnv, true)
		if err != nil {
			return err
		}
		builder.Encrypt(backupEncrypt, key)
	}

	job, err := builder.Build()
	if err != nil {
		return err
	}

	return app.ExecuteBackup(context.Background(), job)
}

// applyJobFile merges YAML job parameters under explicit flags.
func applyJobFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read job file: %w", err)
	}

	var spec jobFileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	if !cmd.Flags().Changed("source") && spec.Source != "" {
		backupSource = spec.Source
	}
	if !cmd.Flags().Changed("destination") && spec.Destination != "" {
		backupDestination = spec.Destination
	}
	if !cmd.Flags().Changed("base-name") && spec.BaseName != "" {
		backupBaseName = spec.BaseName
	}
	if !cmd.Flags().Changed("description") && spec.Description != "" {
		backupDescription = spec.Description
	}
	if !cmd.Flags().Changed("codec") && spec.Codec != "" {
		backupCodec = spec.Codec
	}
	if !cmd.Flags().Changed("incremental") {
		backupIncremental = spec.Incremental
	}
	if !cmd.Flags().Changed("encrypt") && spec.Encrypt != "" {
		backupEncrypt = spec.Encrypt
	}
	if !cmd.Flags().Changed("key-env") && spec.KeyEnv != "" {
		backupKeyEnv = spec.KeyEnv
	}

	return nil
}

// resolveKey obtains key material from the named environment variable or,
// failing that, from an interactive terminal prompt. The key never
// appears in logs or argv.
func resolveKey(keyEnv string, confirm bool) ([]byte, error) {
	if keyEnv != "" {
		value, ok := os.LookupEnv(keyEnv)
		if !ok || value == "" {
			return nil, fmt.Errorf("environment variable %s is not set", keyEnv)
		}
		return []byte(value), nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, fmt.Errorf("no terminal available for key entry; use --key-env")
	}

	fmt.Fprint(os.Stderr, "Encryption key: ")
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm key: ")
		again, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to read key confirmation: %w", err)
		}
		if string(key) != string(again) {
			return nil, fmt.Errorf("keys do not match")
		}
	}

	return key, nil
}
