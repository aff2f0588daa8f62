package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed [sentence ...]",
	Short: "Embed sentences through the cache",
	Long: `Compute embeddings for the given sentences, serving previously seen
sentences from the persistent cache. Sentences are passed as arguments, or
read from stdin one per line when no arguments are given.

Output is a JSON document with one vector per input sentence, in input
order, plus hit/miss counts for the call.`,
	Example: `  embedcache embed "hello world"
  embedcache embed "first" "second" "first"
  cat corpus.txt | embedcache embed`,
	RunE: runEmbed,
}

// embedOutput is the JSON shape emitted by the embed command.
type embedOutput struct {
	Namespace  string      `json:"namespace"`
	Dimensions int         `json:"dimensions"`
	Hits       int         `json:"hits"`
	Misses     int         `json:"misses"`
	Vectors    [][]float32 `json:"vectors"`
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	sentences := args
	if len(sentences) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			sentences = append(sentences, line)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	ctx := cmd.Context()
	engine, cleanup, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := engine.Embed(ctx, sentences)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "embedded %d sentences: %d hits, %d misses\n",
			len(sentences), res.Hits, res.Misses)
	}

	out := embedOutput{
		Namespace: engine.Namespace(),
		Hits:      res.Hits,
		Misses:    res.Misses,
		Vectors:   res.Vectors,
	}
	if len(res.Vectors) > 0 {
		out.Dimensions = len(res.Vectors[0])
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
