package config

import (
	"os"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	DatasetDialect            string        `koanf:"dataset_dialect"`
	DatasetPath               string        `koanf:"dataset_path"`
	Environment               string        `koanf:"environment"`
	Hostname                  string        `koanf:"-"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	MirrorWorkers             int           `koanf:"mirror_workers"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	SnapshotKey               string        `koanf:"snapshot_key"`
}

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/config.yaml"
)

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database_busy_timeout":        5 * time.Second,
		"database_connect_retry_count": 5,
		"database_connect_retry_delay": 2 * time.Second,
		"database_debug":               false,
		"database_max_retries":         5,
		"dataset_dialect":              "quoted",
		"dataset_path":                 "./data/real_books_dataset.csv",
		"environment":                  "production",
		"mirror_workers":               2,
		"server_host":                  "0.0.0.0",
		"server_port":                  3689,
		"snapshot_key":                 "savedBooks",
	}
}

// New loads the config from defaults, then the YAML file named by CONFIG_FILE
// (if it exists), then environment variables. Later sources win.
func New() (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	keys := configKeys()
	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		name := strings.ToLower(key)
		if _, ok := keys[name]; !ok || value == "" {
			return "", nil
		}
		return name, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	return cfg, nil
}

// NewForTest returns a config suitable for tests without reading any files or
// environment variables.
func NewForTest() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 1,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		DatabaseFilePath:          ":memory:",
		DatabaseMaxRetries:        5,
		DatasetDialect:            "quoted",
		DatasetPath:               "./data/real_books_dataset.csv",
		Environment:               "test",
		Hostname:                  "test",
		JWTSecret:                 "test-secret",
		MirrorWorkers:             1,
		ServerHost:                "127.0.0.1",
		ServerPort:                3689,
		SnapshotKey:               "savedBooks",
	}
}

// IsTest reports whether the service runs in the test environment, where the
// test-only routes are mounted.
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}

func configKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("koanf")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}

func validate(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := toSnakeCase(field.Name)
			return errors.Errorf("missing required config: %s (%s)", strings.ToUpper(key), key)
		}
	}
	return nil
}

// toSnakeCase converts a Go field name to its config key, keeping acronyms
// such as JWT together.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
