package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DotEnvPath returns the absolute path to gfr's dotenv file
// (<user config dir>/gfr/.env). It does not follow GFR_DIR, since that key
// may itself come from this file.
func DotEnvPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads the dotenv file and returns key/value pairs.
//
// Parsing rules:
// - Lines starting with '#' are ignored.
// - Empty lines are ignored.
// - Lines must be of form KEY=VALUE.
// - Whitespace around KEY is trimmed.
// - VALUE is taken as-is (no quote parsing).
func LoadDotEnv() (map[string]string, error) {
	p, err := DotEnvPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot open dotenv file %s: %w", p, err)
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
	}
	return out, nil
}

// GetConfigValue returns the effective value for key, using process
// environment variables first and falling back to the dotenv file.
func GetConfigValue(key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	dotenv, err := LoadDotEnv()
	if err != nil {
		return "", err
	}
	return dotenv[key], nil
}

// EnsureDotEnvTemplate writes a commented dotenv template if none exists.
// It reports whether a file was created.
func EnsureDotEnvTemplate() (bool, error) {
	p, err := DotEnvPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(p); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	body := "" +
		"# Values here apply when the variable is not set in the environment.\n" +
		EnvDir + "=\n" +
		EnvIndexURL + "=\n" +
		EnvLogLevel + "=\n"

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return false, fmt.Errorf("cannot create %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return false, fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return true, nil
}
