package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics for the configured model",
	Long: `Display the namespace, entry count, and stored bytes for the cache
partition of the currently configured embedding model.`,
	RunE: runStats,
}

// statsOutput is the JSON shape emitted by the stats command.
type statsOutput struct {
	Namespace  string `json:"namespace"`
	Entries    int64  `json:"entries"`
	ValueBytes int64  `json:"value_bytes"`
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, configDir, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, configDir)
	if err != nil {
		return err
	}
	defer store.Close()

	namespace := modelConfig(cfg).Namespace()
	if err := store.EnsureNamespace(ctx, namespace); err != nil {
		return err
	}
	stats, err := store.Stats(ctx, namespace)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(statsOutput{
		Namespace:  namespace,
		Entries:    stats.Entries,
		ValueBytes: stats.ValueBytes,
	})
}
