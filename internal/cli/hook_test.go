package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHookScript(t *testing.T) {
	script := generateHookScript("high", "low", false)

	if !strings.Contains(script, hookMarkerStart) {
		t.Error("Script missing start marker")
	}
	if !strings.Contains(script, hookMarkerEnd) {
		t.Error("Script missing end marker")
	}
	if !strings.Contains(script, "sift review staged --fail-on high --min-severity low --format text\n") {
		t.Error("Script missing sift command with correct flags")
	}
	if !strings.Contains(script, "SIFT_EXIT=$?") {
		t.Error("Script missing exit code capture")
	}
	if !strings.Contains(script, "exit 1") {
		t.Error("Script missing exit 1 for findings")
	}
	if !strings.Contains(script, "allowing commit") {
		t.Error("Script missing warning for errors")
	}
}

func TestGenerateHookScript_CustomFlags(t *testing.T) {
	script := generateHookScript("medium", "medium", true)

	if !strings.Contains(script, "--fail-on medium") {
		t.Error("Script doesn't use custom fail-on")
	}
	if !strings.Contains(script, "--min-severity medium") {
		t.Error("Script doesn't use custom min-severity")
	}
	if !strings.Contains(script, " --ai\n") {
		t.Error("Script doesn't enable AI review")
	}
}

func TestReplaceSiftSection_NoExisting(t *testing.T) {
	existing := "#!/bin/sh\nsome-other-hook\n"
	section := generateHookScript("high", "low", false)

	result := replaceSiftSection(existing, section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-other-hook\n") {
		t.Error("Existing content should be preserved")
	}
	if !strings.Contains(result, hookMarkerStart) {
		t.Error("New section should be appended")
	}
}

func TestReplaceSiftSection_ExistingSection(t *testing.T) {
	oldSection := generateHookScript("low", "low", false)
	existing := "#!/bin/sh\nbefore\n" + oldSection + "after\n"
	newSection := generateHookScript("high", "medium", false)

	result := replaceSiftSection(existing, newSection)

	if !strings.Contains(result, "before") {
		t.Error("Content before sift section should be preserved")
	}
	if !strings.Contains(result, "after") {
		t.Error("Content after sift section should be preserved")
	}
	if !strings.Contains(result, "--fail-on high") {
		t.Error("New section should have updated flags")
	}
	if strings.Contains(result, "--fail-on low") {
		t.Error("Old section should be replaced")
	}
	if strings.Count(result, hookMarkerStart) != 1 {
		t.Errorf("start marker count = %d, want 1", strings.Count(result, hookMarkerStart))
	}
}

func TestReplaceSiftSection_NoTrailingNewline(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook"
	section := generateHookScript("high", "low", false)

	result := replaceSiftSection(existing, section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-hook\n"+hookMarkerStart) {
		t.Errorf("result = %q, want section on its own line", result)
	}
}

func TestRemoveSiftSection(t *testing.T) {
	section := generateHookScript("high", "low", false)
	existing := "#!/bin/sh\nbefore\n" + section + "after\n"

	result := removeSiftSection(existing)

	if result != "#!/bin/sh\nbefore\nafter\n" {
		t.Errorf("removeSiftSection() = %q", result)
	}
}

func TestRemoveSiftSection_NoSection(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook\n"
	if got := removeSiftSection(existing); got != existing {
		t.Errorf("removeSiftSection() = %q, want unchanged", got)
	}
}

func TestHookInstallUninstall(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	t.Chdir(dir)

	hookPath := filepath.Join(dir, ".git", "hooks", "pre-commit")

	stdout, _, code := execute(t, "hook", "install", "--fail-on", "medium")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Installed sift pre-commit hook")

	data, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#!/bin/sh\n"))
	assert.Contains(t, string(data), "--fail-on medium")

	// Reinstalling replaces the section rather than appending a second one.
	_, _, code = execute(t, "hook", "install")
	require.Equal(t, ExitSuccess, code)
	data, err = os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), hookMarkerStart))
	assert.Contains(t, string(data), "--fail-on high")

	stdout, _, code = execute(t, "hook", "uninstall")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Removed sift pre-commit hook")
	_, err = os.Stat(hookPath)
	assert.True(t, os.IsNotExist(err))
}

func TestHookUninstall_KeepsOtherHooks(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	t.Chdir(dir)

	hookPath := filepath.Join(dir, ".git", "hooks", "pre-commit")
	require.NoError(t, os.MkdirAll(filepath.Dir(hookPath), 0o755))
	require.NoError(t, os.WriteFile(hookPath, []byte("#!/bin/sh\nmake lint\n"), 0o755))

	_, _, code := execute(t, "hook", "install")
	require.Equal(t, ExitSuccess, code)

	stdout, _, code := execute(t, "hook", "uninstall")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Removed sift section")

	data, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nmake lint\n", string(data))
}
