package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// EnvPrefix namespaces environment overrides, e.g. POLLWATCH_WATCH_MODE.
const EnvPrefix = "POLLWATCH"

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Load reads the YAML file at path, then normalizes and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read decodes the YAML file at path over the defaults and applies
// environment overrides. An empty path yields defaults and environment
// only. The result is neither normalized nor validated, so callers can
// layer flags on top first.
func Read(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		// expand $(ENV_VAR) placeholders
		expanded := expandEnvVars(string(data))

		if err := v.ReadConfig(bytes.NewReader([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// ReadOptional behaves like Read but treats a missing file as no file.
func ReadOptional(path string) (*Config, error) {
	cfg, err := Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Read("")
	}
	return cfg, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("watch.mode", ModePoll)
	v.SetDefault("watch.basePath", ".")
	v.SetDefault("watch.extensions", []string{})
	v.SetDefault("watch.dirs", []string{})
	v.SetDefault("watch.files", []string{})
	v.SetDefault("watch.scanInterval", 2)
	v.SetDefault("watch.hash", "md5")
	v.SetDefault("watch.debounce", "200ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Dump renders cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshalling yaml: %w", err)
	}
	return out, nil
}
