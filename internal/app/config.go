package app

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config contains global runtime configuration.
type Config struct {
	Workspace   string
	LogLevel    string
	Timeout     time.Duration
	Manifest    string
	Remote      string
	Branch      string
	RegistryURL string
	// RegistryToken comes from RELEASEKIT_REGISTRY_TOKEN; never from a flag.
	RegistryToken string
}

// MustLoadConfigFromViper builds Config from Viper-bound flags/env.
func MustLoadConfigFromViper() Config {
	ws := viper.GetString("workspace")
	if ws == "" {
		panic("workspace is empty")
	}
	return Config{
		Workspace:     ws,
		LogLevel:      viper.GetString("log_level"),
		Timeout:       viper.GetDuration("timeout"),
		Manifest:      viper.GetString("manifest"),
		Remote:        viper.GetString("remote"),
		Branch:        viper.GetString("branch"),
		RegistryURL:   viper.GetString("registry_url"),
		RegistryToken: viper.GetString("registry_token"),
	}
}

// Validate returns error if configuration is invalid.
func (c Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace cannot be empty")
	}
	if c.Manifest == "" {
		return fmt.Errorf("manifest path cannot be empty")
	}
	if c.Remote == "" || c.Branch == "" {
		return fmt.Errorf("remote and branch cannot be empty")
	}
	return nil
}
