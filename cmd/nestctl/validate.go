package main

import (
	"github.com/spf13/cobra"
)

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [sources...]",
		Short: "Check scenarios without running them",
		Long: `Parse scenarios and check every name they reference.

The first invalid scenario is reported with its location.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := a.sources(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, src := range sources {
				sc, err := a.loader.Load(cmd.Context(), src)
				if err != nil {
					return err
				}
				a.success("%s (%s)", sc.Name, src)
			}
			return nil
		},
	}
}
