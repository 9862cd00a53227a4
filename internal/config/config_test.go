package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", AppName},
		{"AppID", AppID},
		{"Version", Version},
		{"UserAgent", UserAgent},
		{"ICalVersion", ICalVersion},
		{"ICalProdid", ICalProdid},
		{"KeyringService", KeyringService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

// TestDefaults_Sanity checks that default values make sense logically.
func TestDefaults_Sanity(t *testing.T) {
	assert.Greater(t, DefaultRefreshMin, 0, "Default refresh interval must be positive")
	assert.Equal(t, 2000, DefaultLeapYear, "Default leap year must be 2000 for consistency")
	assert.Less(t, WindowWeek, WindowMonth)
	assert.Equal(t, []int{0, 1, 3, 7, 14, 30}, NotifyBeforeDaysOptions)
	assert.Contains(t, SupportedLanguages, DefaultLanguage)
}

// TestUserAgent_Format ensures the UA string follows the standard format.
func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(UserAgent, "Go-Birthday-Tracker/"), "UserAgent must start with AppName/")
}

// TestTimeoutsAndLimits ensures that operational constraints are reasonable.
func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, HTTPTimeout, 0*time.Second, "HTTPTimeout must be positive")
	assert.LessOrEqual(t, HTTPTimeout, 2*time.Minute, "HTTPTimeout should not be excessively long")
	assert.Greater(t, ShutdownTimeout, 0*time.Second, "ShutdownTimeout must be positive")

	assert.Greater(t, MaxAPIResponseSize, 0)
	assert.Less(t, MaxAPIResponseSize, MaxHTTPResponseSize, "JSON responses are far smaller than vCard dumps")
	assert.Less(t, int64(MaxHTTPResponseSize), int64(1*1024*1024*1024), "MaxHTTPResponseSize should stay under 1GB to protect RAM")
}

func TestLoadSettings_Layering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"api_url":"https://file.example/api","port":"9000","language":"fr"}`), FilePermUserRW))

	env := map[string]string{
		EnvPort:       "9100",
		EnvRefreshMin: "15",
	}
	s, err := loadSettingsWith(path, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "https://file.example/api", s.APIURL, "file overrides defaults")
	assert.Equal(t, "fr", s.Language)
	assert.Equal(t, "9100", s.Port, "environment overrides file")
	assert.Equal(t, 15, s.RefreshMin)
	assert.Equal(t, SourceModeAPI, s.SourceMode, "untouched values keep their defaults")
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := loadSettingsWith(filepath.Join(t.TempDir(), "absent.json"), func(string) string { return "" })
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, s.Port)
	assert.Equal(t, DefaultAPIURL, s.APIURL)
}

func TestLoadSettings_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, SettingsFileName)
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), FilePermUserRW))

	_, err := loadSettingsWith(bad, func(string) string { return "" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrSettingsDecode)

	_, err = loadSettingsWith("", func(k string) string {
		if k == EnvRefreshMin {
			return "hourly"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrRefreshInterval)
}

func TestSettingsPath(t *testing.T) {
	got := settingsPath(func() (string, error) { return "/home/ada/.config", nil })
	assert.Equal(t, filepath.Join("/home/ada/.config", AppID, SettingsFileName), got)

	got = settingsPath(func() (string, error) { return "", errors.New("$HOME is not defined") })
	assert.Empty(t, got, "no config directory means defaults and environment only")
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		port    string
		wantErr string
	}{
		{"18080", ""},
		{"", ErrPortRequired},
		{"abc", ErrPortNumber},
		{"0", ErrPortRange},
		{"70000", ErrPortRange},
	}
	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			err := ValidatePort(tt.port)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
