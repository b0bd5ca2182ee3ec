package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewInitCmd tests the init command structure.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}
	if cmd.Flags().Lookup("output") == nil {
		t.Error("expected output flag")
	}
	if cmd.Flags().Lookup("force") == nil {
		t.Error("expected force flag")
	}
}

// TestRunInitCmd tests configuration file generation.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config", ".docharvest")

		cmd := NewInitCmd()
		cmd.SetOut(new(bytes.Buffer))
		if err := cmd.Flags().Set("output", path); err != nil {
			t.Fatal(err)
		}

		if err := runInitCmd(cmd, nil); err != nil {
			t.Fatalf("runInitCmd failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("config file not written: %v", err)
		}
		if !strings.Contains(string(data), "sites:") {
			t.Errorf("generated config missing sites section: %s", data)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".docharvest")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		if err := cmd.Flags().Set("output", path); err != nil {
			t.Fatal(err)
		}

		if err := runInitCmd(cmd, nil); err == nil {
			t.Error("expected error for existing file")
		}
	})

	t.Run("force overwrites existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".docharvest")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		if err := cmd.Flags().Set("output", path); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("force", "true"); err != nil {
			t.Fatal(err)
		}

		if err := runInitCmd(cmd, nil); err != nil {
			t.Fatalf("runInitCmd failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})
}
