// Copyright © 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the application settings file searched for in the
// standard locations.
const FileName = "stm32pio.yaml"

// Defaults used when the settings file does not provide a value.
const (
	DefaultPlatformIOCmd  = "platformio"
	DefaultBoardsLifetime = 5 * time.Second
	DefaultFramework      = "stm32cube"
)

type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

var Config Type

func init() {
	_, _ = Load()
}

// Load reads the settings file and makes it the active Config. The optional
// namespace is tried as a key prefix before the bare key on every lookup.
func Load(namespace ...string) (Type, error) {
	var ns string
	if len(namespace) > 0 {
		ns = namespace[0]
	}

	path, err := getConfigPath()
	if err != nil {
		return Type{Namespace: ns}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{Namespace: ns}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{Namespace: ns}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	Config = Type{
		Source:    path,
		Namespace: ns,
		Data:      data}

	return Config, nil
}

// get traverses the map using a dotted key path
func (cfg *Type) get(kspec string) (any, error) {
	if len(cfg.Data) == 0 {
		_, _ = Load(cfg.Namespace)
	}

	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		var current interface{} = Config.Data

		success := true
		for _, part := range strings.Split(key, ".") {
			m, ok := current.(map[string]interface{})
			if !ok {
				success = false
				break
			}
			current, ok = m[part]
			if !ok {
				success = false
				break
			}
		}

		if success {
			return current, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

func GetString(key string, defaultValue ...string) (string, error) {
	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

// GetStringSlice returns a list value. A single string is treated as a
// one-element list.
func GetStringSlice(key string) ([]string, error) {
	val, err := Config.get(key)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: list item %v is not a string", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("value is not a list")
	}
}

func GetInt(key string, defaultValue ...int) (int, error) {
	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

// GetDuration accepts either a Go duration string ("5s", "1m30s") or a bare
// number, which is read as seconds.
func GetDuration(key string, defaultValue ...time.Duration) (time.Duration, error) {
	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not a duration: %w", key, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, errors.New("value is not a duration")
	}
}

// Settings are the typed application settings the commands consume.
type Settings struct {
	PlatformIOCmd  string
	BoardsLifetime time.Duration
	BoardsTimeout  time.Duration
	Framework      string
}

// AppSettings resolves Settings from the active Config, falling back to the
// package defaults for anything missing or malformed. STM32PIO_PLATFORMIO_CMD
// overrides app.platformio_cmd.
func AppSettings() Settings {
	s := Settings{
		PlatformIOCmd:  DefaultPlatformIOCmd,
		BoardsLifetime: DefaultBoardsLifetime,
		Framework:      DefaultFramework,
	}

	if v, ok := os.LookupEnv("STM32PIO_PLATFORMIO_CMD"); ok && v != "" {
		s.PlatformIOCmd = v
	} else if v, err := GetString("app.platformio_cmd", DefaultPlatformIOCmd); err == nil && v != "" {
		s.PlatformIOCmd = v
	}
	if v, err := GetDuration("boards.lifetime", DefaultBoardsLifetime); err == nil && v > 0 {
		s.BoardsLifetime = v
	} else if err != nil {
		log.WithError(err).Warn("ignoring boards.lifetime")
	}
	if v, err := GetDuration("boards.timeout", 0); err == nil && v >= 0 {
		s.BoardsTimeout = v
	} else if err != nil {
		log.WithError(err).Warn("ignoring boards.timeout")
	}
	if v, err := GetString("boards.framework", DefaultFramework); err == nil && v != "" {
		s.Framework = v
	}

	return s
}

func getConfigPath() (string, error) {
	if p, ok := os.LookupEnv("STM32PIO_CFG"); ok && p != "" {
		fileInfo, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", p)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("STM32PIO_CFG points to a directory: %s", p)
		}
		log.Debugf("using config file: %s", p)
		return p, nil
	}

	var candidates []string = []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fileInfo, err := os.Stat(file); err == nil {
			if !fileInfo.IsDir() {
				log.Debugf("using config file: %s", file)
				return file, nil
			}
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
