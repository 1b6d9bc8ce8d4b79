package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestIsPortSpecifiedInToml(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data string
		want bool
	}{
		{name: "missing server", data: "[data]\ndata_dir='x'\n", want: false},
		{name: "server without port", data: "[server]\ndev_mode=true\n", want: false},
		{name: "server with port", data: "[server]\nport=12345\n", want: true},
		{name: "invalid toml", data: "[server\nport=1\n", want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := isPortSpecifiedInToml([]byte(tc.data))
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 18080

[report]
path = "weekly.md"
heading = false

[crawler]
timeout = "3s"
concurrency = 2

[[cities]]
key = "Beijing"
name = "北京"
url = "https://bj.ke.com/ershoufang/"

[[cities]]
key = "Guangzhou"
name = "广州"

[[cities]]
key = "Shanghai"
name = "上海"

[[cities]]
key = "Wuhan"
name = "武汉"
`)

	cfg, info, err := LoadConfigWithInfo(path)
	if err != nil {
		t.Fatalf("LoadConfigWithInfo: %v", err)
	}
	if info.Path != path || !info.PortSpecified {
		t.Fatalf("info = %+v, want path %s with port specified", info, path)
	}
	if cfg.Server.Port != 18080 {
		t.Fatalf("port = %d want 18080", cfg.Server.Port)
	}
	if cfg.Report.Path != "weekly.md" || cfg.Report.Heading {
		t.Fatalf("report = %+v", cfg.Report)
	}
	// 未出现在文件中的字段保持默认值
	if cfg.Data.DBName != "webcrawler.db" {
		t.Fatalf("db name = %q want default", cfg.Data.DBName)
	}
	timeout, err := cfg.CrawlTimeout()
	if err != nil || timeout != 3*time.Second {
		t.Fatalf("timeout = %v, %v want 3s", timeout, err)
	}

	roster, err := cfg.Roster()
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if roster.Len() != 4 {
		t.Fatalf("roster len = %d want 4", roster.Len())
	}
	unknown := roster.Unknown()
	if unknown[0].Key != "Shanghai" || unknown[1].Key != "Wuhan" {
		t.Fatalf("unknown group = %+v", unknown)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad timeout":   "[crawler]\ntimeout = \"soon\"\n",
		"empty report":  "[report]\npath = \"\"\n",
		"short roster":  "[[cities]]\nkey = \"Beijing\"\nname = \"北京\"\n",
		"negative pool": "[crawler]\nconcurrency = -1\n",
	}
	for name, body := range cases {
		path := writeConfig(t, body)
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[report]\npath = \"from-file.md\"\n")
	t.Setenv("WEBCRAWLER_REPORT_PATH", "from-env.md")
	t.Setenv("WEBCRAWLER_DATA_DIR", "/tmp/webcrawler-data")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Report.Path != "from-env.md" {
		t.Fatalf("report path = %q want from-env.md", cfg.Report.Path)
	}
	if cfg.Data.DataDir != "/tmp/webcrawler-data" {
		t.Fatalf("data dir = %q", cfg.Data.DataDir)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	cfg := DefaultConfig()
	cfg.Server.Port = 30000

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Server.Port != 30000 {
		t.Fatalf("port = %d want 30000", loaded.Server.Port)
	}
	if len(loaded.Cities) != len(cfg.Cities) {
		t.Fatalf("cities = %d want %d", len(loaded.Cities), len(cfg.Cities))
	}
}

func TestEnsureDataDir(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")

	dir, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	for _, sub := range []string{"exports", "backups"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil || !info.IsDir() {
			t.Fatalf("subdir %s missing: %v", sub, err)
		}
	}
	if got, want := cfg.WorkbookPath(), filepath.Join(dir, "exports", "snapshots.xlsx"); got != want {
		t.Fatalf("workbook path = %q want %q", got, want)
	}
}
