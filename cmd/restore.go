package cmd

import (
	"context"
	"fmt"
	"strings"

	"treesafe/internal/backup"

	"github.com/spf13/cobra"
)

var (
	// Restore flags
	restoreArchive     string
	restoreDestination string
	restoreKeyEnv      string
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a backup archive into a directory",
	Long: `Restore a backup archive into a directory.

Encrypted artifacts are decrypted into a private staging area first; the
destination is never written before the archive format is recognized.
The archive format is detected from the file name.

Restoring into a non-empty destination asks for confirmation unless
--auto-approve is set.

Examples:
  # Restore a plain archive
  treesafe restore --archive /backups/projects_20260301T120000.tar.gz \
                   --destination /data/projects

  # Restore an encrypted archive, key from the environment
  treesafe restore --archive /backups/projects_20260301T120000.tar.gz.enc \
                   --destination /data/projects --key-env TREESAFE_KEY`,
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreArchive, "archive", "", "artifact file to restore")
	restoreCmd.Flags().StringVar(&restoreDestination, "destination", "", "directory receiving the extracted tree")
	restoreCmd.Flags().StringVar(&restoreKeyEnv, "key-env", "", "environment variable holding the decryption key")
}

// runRestore is the main execution function for the restore command
func runRestore(cmd *cobra.Command, args []string) error {
	if restoreArchive == "" || restoreDestination == "" {
		return fmt.Errorf("both --archive and --destination are required")
	}

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	var key []byte
	if strings.HasSuffix(restoreArchive, backup.EncryptedSuffix) {
		key, err = resolveKey(restoreKeyEnv, false)
		if err != nil {
			return err
		}
	}

	job, err := backup.NewRestoreJob(restoreArchive, restoreDestination, key)
	if err != nil {
		return err
	}

	return app.ExecuteRestore(context.Background(), job)
}
