package planlog

import "fmt"

// Config selects and tunes the plan history backend.
type Config struct {
	// Backend is one of "", "none", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Rotation applies to the jsonl backend when MaxSizeMB is positive.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// Validate checks that a path is given for persistent backends.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "none":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("planlog: %s backend requires a path", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("planlog: unknown backend %q", c.Backend)
	}
}

// New opens the configured store.
func New(c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case "jsonl":
		if c.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return NewJSONLStore(c.Path)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	default:
		return NopStore{}, nil
	}
}
