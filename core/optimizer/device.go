package optimizer

// Device is anything that can register its variables, balance contributions,
// costs and local constraints into a Model. The parameter structs of this
// package all implement it.
type Device interface {
	Register(m *Model) error
}

// DeviceFunc adapts a function to the Device interface.
type DeviceFunc func(m *Model) error

// Register calls f(m).
func (f DeviceFunc) Register(m *Model) error { return f(m) }
