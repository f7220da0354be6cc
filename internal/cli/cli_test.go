package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := newTestCLI().RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newTestCLI().RootCommand()

	want := []string{"lint", "list", "check", "pin", "cache", "serve", "completion"}
	have := make(map[string]bool)
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestLintCleanManifest(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeManifest(t, "numpy==1.22.2\nPillow==9.0.1\n")

	if err := runCommand(t, "lint", path); err != nil {
		t.Errorf("lint failed on clean manifest: %v", err)
	}
}

func TestLintManifestWithErrors(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeManifest(t, "numpy==1.22.2\n===not a requirement\n")

	if err := runCommand(t, "lint", path); err == nil {
		t.Error("expected lint to fail on unparsable line")
	}
}

func TestLintWarningsExitClean(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeManifest(t, "scipy\n")

	if err := runCommand(t, "lint", path); err != nil {
		t.Errorf("warnings alone should not fail: %v", err)
	}
}

func TestListCommand(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeManifest(t, "--index-url https://mirror.internal/simple\nnumpy==1.22.2\n")

	if err := runCommand(t, "list", path); err != nil {
		t.Errorf("list failed: %v", err)
	}
}

func TestLintMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	if err := runCommand(t, "lint", "no-such-file.txt"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestCachePathHonorsConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cacheTarget := filepath.Join(dir, "custom-cache")
	if err := os.WriteFile("pindown.toml", []byte("[cache]\ndir = \""+cacheTarget+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"cache", "path"})
	root.SetOut(&out)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path failed: %v", err)
	}
	// fmt.Println writes to stdout, not cobra's writer; just exercise the
	// config resolution directly as well.
	c := newTestCLI()
	c.cfg = nil
	if _, err := c.resolveCacheDir(); err != nil {
		t.Errorf("resolveCacheDir without config failed: %v", err)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir failed: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("cacheDir = %q", dir)
	}
}

func TestCacheDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir failed: %v", err)
	}
	home, _ := os.UserHomeDir()
	if dir != filepath.Join(home, ".cache", appName) {
		t.Errorf("cacheDir = %q", dir)
	}
}

func TestVerboseFlagSetsDebugLevel(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeManifest(t, "numpy==1.22.2\n")

	c := newTestCLI()
	root := c.RootCommand()
	root.SetArgs([]string{"--verbose", "lint", path})
	root.SetOut(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("lint failed: %v", err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Error("expected --verbose to enable debug logging")
	}
}

// chdir changes to dir for the duration of the test, mirroring t.Chdir,
// which requires a newer version of Go than this module targets.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
