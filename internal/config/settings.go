package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings holds the runtime configuration of the CLI and the local service.
type Settings struct {
	APIURL     string `json:"api_url"`
	User       string `json:"user"`
	DataDir    string `json:"data_dir"`
	Port       string `json:"port"`
	Language   string `json:"language"`
	RefreshMin int    `json:"refresh_interval_min"`
	SourceMode string `json:"source"`
	VCardPath  string `json:"vcard_path"`
	VCardURL   string `json:"vcard_url"`
	VCardUser  string `json:"vcard_user"`
}

// DefaultSettings returns the built-in values used before any file or environment override.
func DefaultSettings() Settings {
	return Settings{
		APIURL:     DefaultAPIURL,
		DataDir:    defaultDataDir(),
		Port:       DefaultPort,
		Language:   DefaultLanguage,
		RefreshMin: DefaultRefreshMin,
		SourceMode: SourceModeAPI,
	}
}

// LoadSettings reads defaults, then the JSON settings file in the user config
// directory, then GOBDAY_* environment variables. A missing file is not an error.
func LoadSettings() (Settings, error) {
	return loadSettingsWith(settingsPath(os.UserConfigDir), os.Getenv)
}

// settingsPath locates the settings file. Without a config directory only
// defaults and the environment apply.
func settingsPath(userConfigDir func() (string, error)) string {
	dir, err := userConfigDir()
	if err != nil {
		slog.Warn(ErrConfigDir,
			LogKeyComponent, CompConfig,
			LogKeyError, err,
		)
		return ""
	}
	return filepath.Join(dir, AppID, SettingsFileName)
}

func loadSettingsWith(path string, getenv func(string) string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &s); err != nil {
				return Settings{}, fmt.Errorf("%s: %w", ErrSettingsDecode, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Settings{}, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		}
	}

	overrides := map[string]*string{
		EnvAPIURL:     &s.APIURL,
		EnvUser:       &s.User,
		EnvDataDir:    &s.DataDir,
		EnvPort:       &s.Port,
		EnvLanguage:   &s.Language,
		EnvSourceMode: &s.SourceMode,
		EnvVCardPath:  &s.VCardPath,
		EnvVCardURL:   &s.VCardURL,
		EnvVCardUser:  &s.VCardUser,
	}
	for key, dst := range overrides {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(getenv(EnvRefreshMin)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", ErrRefreshInterval, err)
		}
		s.RefreshMin = n
	}

	return s, nil
}

// ValidatePort checks that the port is a number within the TCP range.
func ValidatePort(port string) error {
	if strings.TrimSpace(port) == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppID)
}
