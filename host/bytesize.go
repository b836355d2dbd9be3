package host

import (
	"fmt"
	"math"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// ByteSize is a size limit that reads from YAML either as a plain number of
// bytes or as a human readable size such as "512KiB" or "4mb".
type ByteSize uint32

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("byte size: expected a scalar at line %d", node.Line)
	}
	raw := node.Value
	n, err := units.RAMInBytes(raw)
	if err != nil {
		return fmt.Errorf("byte size %q: %w", raw, err)
	}
	if n < 0 || n > math.MaxUint32 {
		return fmt.Errorf("byte size %q out of range", raw)
	}
	*b = ByteSize(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (any, error) {
	return uint32(b), nil
}

func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}
