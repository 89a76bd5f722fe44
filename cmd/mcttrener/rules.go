package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule table as YAML",
		Long: "Print the effective rule table as YAML. The output is a valid rules_file " +
			"and can be edited and loaded back with MCT_RULES_FILE.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.rules()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
