package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/goldencross/internal/app"
)

var resultsCmd = &cobra.Command{
	Use:   "results [file]",
	Short: "List stored result files, or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	a := app.New(cfg, log)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		data, err := a.ReadResult(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	files, err := a.ListResults(cmd.Context())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No results stored")
		return nil
	}
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	return nil
}
