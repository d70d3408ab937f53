package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/rules"
)

var flagRulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the static rule catalogue",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List static rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := rules.Default()
		metas := make([]rules.Meta, 0, registry.Len())
		for _, r := range registry.Rules() {
			metas = append(metas, r.Meta())
		}

		w := cmd.OutOrStdout()
		if flagRulesJSON {
			data, err := json.MarshalIndent(metas, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		}

		for _, m := range metas {
			langs := "all"
			if len(m.Languages) > 0 {
				langs = strings.Join(m.Languages, ",")
			}
			fmt.Fprintf(w, "%-8s %-7s %-16s %s (%s)\n", m.ID, m.Severity, m.Category, m.Name, langs)
		}
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().BoolVar(&flagRulesJSON, "json", false, "Print rules as JSON")
}
