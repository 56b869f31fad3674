package config

import "strings"

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type StoreConfig interface {
	GetSessionBackend() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetSessionBackend selects where session data lives: "memory" or "redis".
func (Store) GetSessionBackend() string {
	return strings.ToLower(GetEnv("SESSION_BACKEND", SessionBackendMemory))
}

func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Store) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "social-connect:session:")
}
