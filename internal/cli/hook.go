package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/gitctx"
)

const (
	hookMarkerStart = "# >>> sift pre-commit hook >>>"
	hookMarkerEnd   = "# <<< sift pre-commit hook <<<"
)

var (
	hookFailOn      string
	hookMinSeverity string
	hookAI          bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install sift as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}

		section := generateHookScript(hookFailOn, hookMinSeverity, hookAI)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			runtimeError(cmd, fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		var content string
		if len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceSiftSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			runtimeError(cmd, fmt.Errorf("creating hooks directory: %w", err))
			return nil
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			runtimeError(cmd, fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed sift pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the sift pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
				return nil
			}
			runtimeError(cmd, fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		content := removeSiftSection(string(existing))

		// Only a shebang left: remove the file.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				runtimeError(cmd, fmt.Errorf("removing hook file: %w", err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed sift pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			runtimeError(cmd, fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed sift section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	repo, err := gitctx.Open(".")
	if err != nil {
		return "", err
	}
	return repo.HookPath("pre-commit"), nil
}

func generateHookScript(failOn, minSeverity string, ai bool) string {
	command := fmt.Sprintf("sift review staged --fail-on %s --min-severity %s --format text", failOn, minSeverity)
	if ai {
		command += " --ai"
	}

	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString(command + "\n")
	b.WriteString("SIFT_EXIT=$?\n")
	b.WriteString("if [ $SIFT_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"sift: findings at or above " + failOn + ", commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $SIFT_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"sift: review failed (exit $SIFT_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceSiftSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeSiftSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Block the commit at this severity (low, medium, high, block)")
	hookInstallCmd.Flags().StringVar(&hookMinSeverity, "min-severity", "low", "Suppress findings below this severity")
	hookInstallCmd.Flags().BoolVar(&hookAI, "ai", false, "Include AI review in the hook")
}
