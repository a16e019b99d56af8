package demoserver

// Config holds configuration for the demo inference service.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// InitialScenario is the scenario served at start-up (default: "focused").
	InitialScenario string
}

// DefaultConfig returns a Config with sensible defaults. The port matches the
// detector client's default base URL.
func DefaultConfig() Config {
	return Config{
		Port:            9000,
		InitialScenario: ScenarioFocused,
	}
}
