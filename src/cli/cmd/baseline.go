package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage the grandfathered-violation baseline",
}

var baselineUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Record current violations as the new baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		checkUpdateBase = true
		return runCheck(cmd, args)
	},
}

var baselineClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the baseline file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := baselinePath()
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Println("no baseline to clear")
				return nil
			}
			return err
		}
		fmt.Printf("removed %s\n", path)
		return nil
	},
}

func init() {
	baselineCmd.AddCommand(baselineUpdateCmd, baselineClearCmd)
	rootCmd.AddCommand(baselineCmd)
}
