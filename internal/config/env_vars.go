package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	appURLVar     = "APP_URL"
	logLevelVar   = "LOG_LEVEL"
	catalogEnvVar = "PLATFORM_CATALOG_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Social Connect")
}

// GetAppURL returns the public base URL, used for redirect URIs when a request carries no
// usable host.
func (EnvVars) GetAppURL() string {
	return strings.TrimRight(GetEnv(appURLVar, "http://localhost:8080"), "/")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (e EnvVars) IsDev() bool {
	return strings.EqualFold(e.GetEnv(), "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetPlatformCatalogFile names an optional YAML file overriding the built-in platform catalog.
func (EnvVars) GetPlatformCatalogFile() string {
	return GetEnv(catalogEnvVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the integer value of envVar, or defaultValue when unset or invalid.
func GetEnvInt(envVar string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return n
}

// GetEnvPositiveInt is GetEnvInt that also rejects zero and negative values.
func GetEnvPositiveInt(envVar string, defaultValue int) int {
	n := GetEnvInt(envVar, defaultValue)
	if n <= 0 {
		return defaultValue
	}
	return n
}

// GetEnvBool returns the boolean value of envVar, or defaultValue when unset or invalid.
func GetEnvBool(envVar string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return b
}

// GetEnvDuration parses envVar as a Go duration ("15s", "2m").
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
