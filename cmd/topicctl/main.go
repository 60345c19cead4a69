// Command topicctl runs topic rebuilds and sweeps from the shell.
//
// Usage:
//
//	topicctl rebuild --user <uuid> [--days N] [--k N] [--algorithm auto|dbscan|kmeans]
//	topicctl sweep
//	topicctl watch
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
