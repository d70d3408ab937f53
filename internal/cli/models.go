package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers and their default tier models",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		for _, name := range providers.Names {
			m := providers.DefaultModels(name)
			fmt.Fprintf(w, "%s:\n", name)
			fmt.Fprintf(w, "  %s: %s\n", providers.Tier1, m.Tier1)
			fmt.Fprintf(w, "  %s: %s\n", providers.Tier2, m.Tier2)
			fmt.Fprintln(w)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured provider accepts our credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		name := cfg.Provider.Name
		model := cfg.Analysis.ModelOverride
		if model == "" {
			model = cfg.Provider.Tier1Model
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s...\n", name)

		p, err := providers.New(providers.Options{
			Name:       name,
			BaseURL:    cfg.Provider.BaseURL,
			APIKey:     cfg.Provider.ResolveAPIKey(),
			Model:      model,
			Timeout:    cfg.Provider.Timeout,
		}, newLogger(cmd, cfg))
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Review(ctx, providers.ReviewRequest{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", name)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
