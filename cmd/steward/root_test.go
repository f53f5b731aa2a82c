package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/steward/internal/command"
	"github.com/1broseidon/steward/internal/config"
	"github.com/spf13/cobra"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"daemon", "status", "greet", "settings", "main", "quit", "toolbar", "setting", "keybind", "config", "mcp", "palette"}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd      *cobra.Command
		name     string
		flagType string
	}{
		{rootCmd, "config", "string"},
		{rootCmd, "socket", "string"},
		{daemonCmd, "backend", "string"},
		{daemonCmd, "log-level", "string"},
		{statusCmd, "json", "bool"},
		{toolbarRegionsCmd, "window", "string"},
		{configPrintCmd, "defaults", "bool"},
		{paletteCmd, "backend", "string"},
		{paletteCmd, "window", "string"},
	}
	for _, tt := range tests {
		f := tt.cmd.Flags().Lookup(tt.name)
		if f == nil {
			f = tt.cmd.PersistentFlags().Lookup(tt.name)
		}
		if f == nil {
			t.Errorf("%s: expected flag %q not found", tt.cmd.Name(), tt.name)
			continue
		}
		if f.Value.Type() != tt.flagType {
			t.Errorf("%s: flag %q: expected type %q, got %q", tt.cmd.Name(), tt.name, tt.flagType, f.Value.Type())
		}
	}
}

func TestToolbarRegionsWindowDefault(t *testing.T) {
	f := toolbarRegionsCmd.Flags().Lookup("window")
	if f == nil || f.DefValue != "toolbar" {
		t.Fatalf("window flag default = %v, want toolbar", f)
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    command.RegionSpec
		wantErr bool
	}{
		{in: "0,0,100,40", want: command.RegionSpec{X: 0, Y: 0, Width: 100, Height: 40}},
		{in: "-10, 5, 20, 20", want: command.RegionSpec{X: -10, Y: 5, Width: 20, Height: 20}},
		{in: "0,0,0,0", want: command.RegionSpec{}},
		{in: "1,2,3", wantErr: true},
		{in: "1,2,3,4,5", wantErr: true},
		{in: "a,0,1,1", wantErr: true},
		{in: "0,0,-1,1", wantErr: true},
		{in: "0,0,1,-1", wantErr: true},
		{in: "99999999999,0,1,1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRegion(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRegion(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRegion(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRegion(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRegions_EmptyMeansFullyClickThrough(t *testing.T) {
	regions, err := parseRegions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if regions == nil || len(regions) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", regions)
	}
}

func TestParseRegions_StopsAtFirstError(t *testing.T) {
	if _, err := parseRegions([]string{"0,0,1,1", "bad"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/a.yaml"}, "file:/a.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/a.yaml", Line: 3, Column: 5}, "file:/a.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &command.Status{
		MainState:     "active",
		UptimeSeconds: 12,
		Regions:       2,
		Windows: []command.WindowStatus{
			{Label: "main", Kind: "main", Visible: true},
			{Label: "toolbar", Kind: "toolbar", Visible: true, AlwaysOnTop: true, ClickThrough: true},
		},
	})
	out := buf.String()
	for _, want := range []string{"Main window: active", "Uptime: 12s", "Click-through regions: 2", "toolbar"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printStatus(&buf, &command.Status{MainState: "terminated"})
	if !strings.Contains(buf.String(), "Windows: none") {
		t.Errorf("expected empty window list, got:\n%s", buf.String())
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	out, err := execute(t, "config", "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "config: ok") {
		t.Errorf("unexpected output %q", out)
	}

	bad := writeConfig(t, "no_such_key: 1\n")
	if _, err := execute(t, "config", "validate", "--config", bad); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}

func TestConfigPrint(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	out, err := execute(t, "config", "print", "--defaults=false", "--config", path)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out, "log_level: debug") {
		t.Errorf("expected file value in output:\n%s", out)
	}
}

func TestConfigExplain(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	out, err := execute(t, "config", "explain", "log_level", "--config", path)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(out, "source: file:") {
		t.Errorf("expected file source, got:\n%s", out)
	}

	out, err = execute(t, "config", "explain", "backend", "--config", path)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(out, "source: default") {
		t.Errorf("expected default source, got:\n%s", out)
	}
}

func TestClientCommandWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "none.sock")
	if _, err := execute(t, "greet", "ada", "--socket", socket); err == nil {
		t.Fatal("expected error when no daemon is listening")
	}
}
