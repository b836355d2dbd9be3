package host

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roastedroot/quickjs4j/hostfuncs"
	"github.com/roastedroot/quickjs4j/internal/validation"
)

// DefaultHostModule is the import module name guests use for invoke and
// log_message.
const DefaultHostModule = "chicory"

// Config holds the executor settings that can be loaded from a file.
type Config struct {
	// HostModule is the module name the guest imports host functions from.
	HostModule string `yaml:"host_module" validate:"required"`

	// MaxRequestSize bounds each string the guest passes to a host function.
	// Accepts a byte count or a size such as "2MiB".
	MaxRequestSize ByteSize `yaml:"max_request_size" validate:"gt=0,lte=67108864"`

	// MemoryLimitPages caps guest linear memory in 64KiB pages. Zero keeps
	// the wazero default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages" validate:"lte=65536"`

	// LogLevel is the minimum level of guest log records that are forwarded.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// CloseOnContextDone interrupts running guest code when the call
	// context is canceled.
	CloseOnContextDone bool `yaml:"close_on_context_done"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		HostModule:     DefaultHostModule,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
		LogLevel:       "info",
	}
}

// Validate checks c against its constraints.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// LoadConfig parses YAML on top of DefaultConfig and validates the result.
func LoadConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
