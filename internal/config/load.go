package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. BOOTCONDA_INSTALLER_BASE_URL.
const EnvPrefix = "BOOTCONDA_"

func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"prefix":                  d.Prefix,
		"installer.base_url":      d.Installer.BaseURL,
		"installer.sha256":        d.Installer.SHA256,
		"channels.default":        d.Channels.Default,
		"sandbox.reserved_prefix": d.Sandbox.ReservedPrefix,
		"sandbox.config_var":      d.Sandbox.ConfigVar,
		"sandbox.config_file":     d.Sandbox.ConfigFile,
		"log.level":               d.Log.Level,
		"log.file":                d.Log.File,
		"command_timeout":         d.CommandTimeout.String(),
	}
}

// EnvKeys maps every supported environment variable to its config key.
func EnvKeys() map[string]string {
	keys := map[string]string{}
	for k := range defaultsMap() {
		keys[EnvPrefix+strings.ToUpper(strings.ReplaceAll(k, ".", "_"))] = k
	}
	return keys
}

// Load layers defaults, the YAML file at path (if present) and BOOTCONDA_*
// environment variables, in that order.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	envKeys := EnvKeys()
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[s]
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "yaml",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				durationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func durationHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(Duration(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.String {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return Duration(0), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", s, err)
		}
		return Duration(d), nil
	}
}
