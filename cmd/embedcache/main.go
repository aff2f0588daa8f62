// Package main is the entry point for the embedcache CLI tool.
package main

import (
	"github.com/hargabyte/embedcache/internal/cmd"
)

func main() {
	cmd.Execute()
}
