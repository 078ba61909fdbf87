package main

import (
	"github.com/spf13/cobra"
)

var projectYears int

var projectCmd = &cobra.Command{
	Use:   "project <ticker>",
	Short: "Project a portfolio holding forward at its historical CAGR",
	Args:  cobra.ExactArgs(1),
	RunE:  runProject,
}

func init() {
	projectCmd.Flags().IntVar(&projectYears, "years", 0, "years to project (default from config)")
	projectCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(outputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	rt, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.app.Project(ctx, args[0], projectYears)
	if err != nil {
		return err
	}
	return p.print(res, projectionTable(res))
}
