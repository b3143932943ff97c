// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials. The process environment is
// consulted first; a directory of plain-text files is the fallback, where
// each filename is the key name and the trimmed file contents are the value.
//
// Supported key files: openai-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets/"

// credentials maps a provider to its environment variable and key file.
var credentials = map[types.Provider]struct {
	env  string
	file string
}{
	types.ProviderOpenAI:    {env: "OPENAI_API_KEY", file: "openai-api-key"},
	types.ProviderAnthropic: {env: "ANTHROPIC_API_KEY", file: "anthropic-api-key"},
}

// EnvVar returns the environment variable that holds the provider's key.
func EnvVar(p types.Provider) string {
	return credentials[p].env
}

// APIKey returns the credential for provider p from the environment or, if
// unset there, from dir. It fails if neither source has a value.
func APIKey(p types.Provider, dir string) (string, error) {
	c, ok := credentials[p]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", p)
	}
	if v := strings.TrimSpace(os.Getenv(c.env)); v != "" {
		return v, nil
	}

	loaded, err := Load(dir)
	if err != nil {
		return "", err
	}
	if v, ok := loaded[c.file]; ok {
		return v, nil
	}
	return "", fmt.Errorf("missing credential: set %s or create %s", c.env, filepath.Join(dir, c.file))
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
