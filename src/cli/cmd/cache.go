package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slocwatch/slocwatch/src/config"
	"github.com/slocwatch/slocwatch/src/counter"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage local caches",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the metrics cache and cached remote configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := counter.ClearCache(rootDir); err != nil {
			return err
		}
		n, err := config.NewFetcher(nil, config.FetchNormal).ClearCache()
		if err != nil {
			return err
		}
		fmt.Printf("cleared metrics cache and %d cached remote config(s)\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
