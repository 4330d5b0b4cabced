// internal/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Dump.Mode == "" {
		cfg.Dump.Mode = "callback"
	}

	// Default display name: the conventional placeholder for the bus type,
	// so dump output matches the well-known candump text convention.
	if cfg.Dump.Name == "" {
		switch cfg.Bus.Type {
		case "slcan", "usbcan":
			cfg.Dump.Name = "slcan"
		case "socketcand":
			cfg.Dump.Name = "socketcand"
		default:
			cfg.Dump.Name = cfg.Bus.Channel
		}
	}
}
