package cmd

import (
	"fmt"
	"os"

	"github.com/hargabyte/embedcache/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize embedcache in the current directory",
	Long:  `Create the .embedcache directory and write a default config.yaml.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	path, err := config.SaveDefault(cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Initialized embedcache configuration at %s\n", path)
	fmt.Println("Edit model.* and store.* to match your setup, then run 'embedcache embed'.")
	return nil
}
