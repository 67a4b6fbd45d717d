package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nipafx/LibFX-sub001/internal/errors"
	"github.com/nipafx/LibFX-sub001/internal/scenario"
)

func runCmd(a *app) *cobra.Command {
	var (
		format string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "run [sources...]",
		Short: "Run scenarios",
		Long: `Run scenarios and print their traces.

Sources are scenario files, directories of *.yaml files, or s3://
prefixes. Without sources, the configured scenario directory is used.

Examples:
  nestctl run
  nestctl run scenarios/depth-two.yaml
  nestctl run s3://my-bucket/scenarios/ --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.compactErrors = quiet
			if format != "text" && format != "json" {
				return errors.New("C003").WithDetail(fmt.Sprintf("--format must be text or json, got %q", format))
			}

			sources, err := a.sources(cmd.Context(), args)
			if err != nil {
				return err
			}

			var failed []string
			for _, src := range sources {
				sc, err := a.loader.Load(cmd.Context(), src)
				if err != nil {
					return err
				}
				res, err := a.runner().Run(cmd.Context(), sc)
				if err != nil {
					return err
				}
				if err := a.report(res, format, quiet); err != nil {
					return err
				}
				if !res.Passed() {
					failed = append(failed, res.Scenario)
				}
			}

			if len(failed) > 0 {
				return errors.New("S006").WithDetail(fmt.Sprintf("%d of %d scenarios failed: %v", len(failed), len(sources), failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the outcome of each scenario and a one-line error")

	return cmd
}

func (a *app) report(res *scenario.Result, format string, quiet bool) error {
	if format == "json" {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if !quiet {
		fmt.Fprint(a.stdout, res.Trace())
	}
	if res.Passed() {
		a.success("%s passed", res.Scenario)
	} else {
		a.errorMsg("%s failed", res.Scenario)
		for _, f := range res.Failures {
			a.info("%s", f)
		}
	}
	return nil
}
