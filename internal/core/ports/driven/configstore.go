package driven

// ConfigStore provides persistent key-value configuration. Nested TOML
// tables are addressed with dot-notation keys, e.g. "index.ngram".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value ("" if absent or wrong type).
	GetString(key string) string

	// GetInt retrieves an integer value (0 if absent or wrong type).
	GetInt(key string) int

	// GetFloat retrieves a float value (0 if absent or wrong type).
	GetFloat(key string) float64

	// GetBool retrieves a boolean value (false if absent or wrong type).
	GetBool(key string) bool

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// Save persists the current configuration to disk.
	Save() error

	// Load reads configuration from disk.
	Load() error
}
