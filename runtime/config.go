package runtime

import (
	"fmt"

	"github.com/roastedroot/quickjs4j/internal/validation"
)

const (
	// DefaultInvokeFunction is the global scripts call builtins through.
	DefaultInvokeFunction = "java_invoke"

	// DefaultPluginFlag is the global set to true so scripts can detect
	// they run inside the plugin.
	DefaultPluginFlag = "plugin"
)

// Features are the engine capabilities enabled at initialization.
type Features struct {
	EventLoop    bool `json:"event_loop"`
	TextEncoding bool `json:"text_encoding"`
	StreamIO     bool `json:"stream_io"`
}

// Config is the bootstrap configuration, passed once to Initialize.
type Config struct {
	Features

	// InvokeFunction names the global bound to the invoke import.
	InvokeFunction string `json:"invoke_function" validate:"required,jsident"`

	// PluginFlag names the boolean global set to true.
	PluginFlag string `json:"plugin_flag" validate:"required,jsident,nefield=InvokeFunction"`
}

// DefaultConfig enables every feature and uses the standard global names.
func DefaultConfig() Config {
	return Config{
		Features: Features{
			EventLoop:    true,
			TextEncoding: true,
			StreamIO:     true,
		},
		InvokeFunction: DefaultInvokeFunction,
		PluginFlag:     DefaultPluginFlag,
	}
}

// Validate checks c against its constraints.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// DecodeConfig builds a Config from a generic map, starting from
// DefaultConfig, and validates it.
func DecodeConfig(m map[string]any) (Config, error) {
	cfg := DefaultConfig()
	if err := validation.Decode(m, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
