// Package config provides environment-driven settings for the dispatch
// backend: log level, folders, listen address, cache backend and the
// embedded name and version.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

type CacheType string

const (
	CacheMemory CacheType = "memory"
	CacheRedis  CacheType = "redis"
)

const (
	defaultListen = "0.0.0.0"
	defaultPort   = 8080
)

// LoadEnv reads KEY=VALUE pairs from the given .env files (".env" when none
// is given) into the process environment. Variables already set win.
// A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("DISPATCH_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("DISPATCH_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("DISPATCH_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/dispatch"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

// GetDBConfigPath returns the optional TOML database config file.
func GetDBConfigPath() string {
	return os.Getenv("DISPATCH_DB_CONFIG")
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("DISPATCH_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetListen() string {
	listen := os.Getenv("DISPATCH_LISTEN")
	if listen == "" {
		return defaultListen
	}
	return listen
}

// GetPort returns DISPATCH_PORT, falling back to 8080 when unset or invalid.
func GetPort() int {
	raw := os.Getenv("DISPATCH_PORT")
	if raw == "" {
		return defaultPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return defaultPort
	}
	return port
}

func GetCacheType() CacheType {
	switch CacheType(strings.ToLower(os.Getenv("DISPATCH_CACHE"))) {
	case CacheRedis:
		return CacheRedis
	default:
		return CacheMemory
	}
}

// GetRedisAddr returns the external redis address. Empty means embedded.
func GetRedisAddr() string {
	return os.Getenv("DISPATCH_REDIS_ADDR")
}

func GetTimeLocation() string {
	loc := os.Getenv("DISPATCH_TIME_LOCATION")
	if loc == "" {
		return "UTC"
	}
	return loc
}
