package optimizer

import (
	"fmt"

	"github.com/kilianp07/energyplan/core/factory"
)

var deviceRegistry = factory.NewRegistry[Device]()

func decodeDevice[T Device](conf map[string]any) (Device, error) {
	var d T
	if err := factory.Decode(conf, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return d, nil
}

func init() {
	_ = RegisterDevice("mains", decodeDevice[Mains])
	_ = RegisterDevice("battery", decodeDevice[Battery])
	_ = RegisterDevice("fixed_load", decodeDevice[FixedLoad])
	_ = RegisterDevice("flexible_load", decodeDevice[FlexibleLoad])
	_ = RegisterDevice("heating", decodeDevice[HeatingLoad])
	_ = RegisterDevice("solar", decodeDevice[Solar])
}

// RegisterDevice adds a device factory identified by name.
func RegisterDevice(name string, f factory.Factory[Device]) error {
	return deviceRegistry.Register(name, f)
}

// NewDevice builds a device from its configuration.
func NewDevice(cfg factory.ModuleConfig) (Device, error) {
	return deviceRegistry.Create(cfg)
}

// DeviceTypes lists the registered device types.
func DeviceTypes() []string { return deviceRegistry.Names() }
