package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points the user config dir at a temp home and clears GFR_*
// variables. It returns DefaultDir().
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("AppData", filepath.Join(home, "AppData"))
	for _, k := range []string{EnvDir, EnvIndexURL, EnvWorkers, EnvLogLevel, EnvColor, EnvHTTPTimeout} {
		t.Setenv(k, "")
	}
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	return dir
}

func writeDotEnv(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDotEnv_NotExist(t *testing.T) {
	isolate(t)

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	dir := isolate(t)
	writeDotEnv(t, dir, "# comment\nA=1\nB=two=2\n  =skip\nnoequals\n")

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 2 || m["A"] != "1" || m["B"] != "two=2" {
		t.Fatalf("unexpected map: %v", m)
	}
}

func TestGetConfigValue_EnvOverridesDotEnv(t *testing.T) {
	dir := isolate(t)
	writeDotEnv(t, dir, "K=fromdotenv\nOTHER=fromdotenv\n")
	// env override
	t.Setenv("K", "fromenv")

	v, err := GetConfigValue("K")
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if v != "fromenv" {
		t.Fatalf("expected env override, got %q", v)
	}
	v, err = GetConfigValue("OTHER")
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if v != "fromdotenv" {
		t.Fatalf("expected dotenv fallback, got %q", v)
	}
}

func TestDir_FromDotEnv(t *testing.T) {
	dir := isolate(t)
	custom := filepath.Join(t.TempDir(), "patterns")
	writeDotEnv(t, dir, EnvDir+"="+custom+"\n")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if got != custom {
		t.Fatalf("Dir = %q, want %q", got, custom)
	}
}

func TestEnsureDotEnvTemplate(t *testing.T) {
	dir := isolate(t)

	created, err := EnsureDotEnvTemplate()
	if err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	if !created {
		t.Fatal("expected template to be created")
	}
	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if _, ok := m[EnvDir]; !ok {
		t.Fatalf("template lacks %s: %v", EnvDir, m)
	}
	// Empty template values fall through to defaults.
	if got, err := Dir(); err != nil || got != dir {
		t.Fatalf("Dir = %q, %v; want %q", got, err, dir)
	}

	writeDotEnv(t, dir, "A=1\n")
	created, err = EnsureDotEnvTemplate()
	if err != nil || created {
		t.Fatalf("existing file must be kept: created=%v err=%v", created, err)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, ".env"))
	if string(raw) != "A=1\n" {
		t.Fatalf("existing file was modified: %q", raw)
	}
}
