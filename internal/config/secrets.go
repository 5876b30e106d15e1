package config

import (
	"os"
	"strings"
)

// ParseEnvFile reads a KEY=value secrets file, ignoring comments and blank
// lines. An optional "export " prefix and surrounding quotes are stripped.
func ParseEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	vars := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		s := strings.TrimSpace(line)
		if s == "" || s[0] == '#' {
			continue
		}
		s = strings.TrimPrefix(s, "export ")
		eqIdx := strings.IndexByte(s, '=')
		if eqIdx < 0 {
			continue
		}
		vars[s[:eqIdx]] = stripQuotes(s[eqIdx+1:])
	}
	return vars, nil
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// LoadSecrets parses the configured env file, if any, and sets each variable
// in the process environment unless it is already set. Missing file paths
// are ignored when empty; a configured but unreadable file is an error.
func LoadSecrets(cfg *Config) error {
	if cfg.Secrets.EnvFile == "" {
		return nil
	}
	vars, err := ParseEnvFile(cfg.Secrets.EnvFile)
	if err != nil {
		return err
	}
	for k, v := range vars {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
	return nil
}
