package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables read by the resolver.
const (
	EnvDeploymentType = "DEPLOYMENT_TYPE"
	EnvSecretKey      = "SECRET_KEY"
	EnvSiteBaseURL    = "SITE_BASE_URL"
	EnvPublish        = "PUBLISH_MESSAGES"
	EnvPublishLegacy  = "PUBLISH_MESSSAGES"
	EnvAPIHost        = "ITF_API_HOST"
	EnvAPIKey         = "ITF_API_KEY"
	EnvRedisURL       = "REDIS_URL"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvPort           = "PORT"
	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"
)

// Env is a snapshot of environment variables.
type Env map[string]string

// OSEnv captures the current process environment.
func OSEnv() Env {
	vars := os.Environ()
	env := make(Env, len(vars))
	for _, kv := range vars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env
}

// LoadEnvFile reads a dotenv file. Keys are upper-cased since the
// underlying reader folds them to lower case.
func LoadEnvFile(path string) (Env, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("env file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	keys := v.AllKeys()
	env := make(Env, len(keys))
	for _, key := range keys {
		env[strings.ToUpper(key)] = v.GetString(key)
	}
	return env, nil
}

// IsNotExist reports whether err was caused by a missing file.
func IsNotExist(err error) bool {
	return err != nil && errors.Is(err, fs.ErrNotExist)
}

// Lookup returns the value of key and whether it was set.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Get returns the value of key, or the empty string.
func (e Env) Get(key string) string {
	return e[key]
}

// GetOrDefault returns the value of key, or def when key is unset.
func (e Env) GetOrDefault(key, def string) string {
	if v, ok := e[key]; ok {
		return v
	}
	return def
}

// Merge returns a new Env holding e's variables with over's on top.
func (e Env) Merge(over Env) Env {
	out := make(Env, len(e)+len(over))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
