package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

const (
	configDirName  = "dutree"
	configFileName = "config.toml"
)

// ConfigPath returns the default location of the config file.
func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, configDirName, configFileName), nil
}

// loadConfig applies the config file at path (or the default location when
// empty) to every flag that was not set on the command line. A missing
// default file is not an error; a missing explicit file is.
func loadConfig(flags *pflag.FlagSet, path string) error {
	explicit := path != ""

	if !explicit {
		var err error

		path, err = ConfigPath()
		if err != nil {
			return nil //nolint:nilerr // No config directory means no config
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("reading config: %w", err)
	}

	return applyConfig(flags, data)
}

// applyConfig sets flags from TOML data whose keys are long flag names.
// Flags changed on the command line keep their value.
func applyConfig(flags *pflag.FlagSet, data []byte) error {
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		flag := flags.Lookup(key)
		if flag == nil || key == "config" {
			return fmt.Errorf("config: unknown key %q", key)
		}

		if flag.Changed {
			continue
		}

		if err := flags.Set(key, configValue(values[key])); err != nil {
			return fmt.Errorf("config: key %q: %w", key, err)
		}
	}

	return nil
}

// configValue renders a decoded TOML value in the form pflag parses.
func configValue(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}

	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, fmt.Sprint(item))
	}

	return strings.Join(parts, ",")
}
