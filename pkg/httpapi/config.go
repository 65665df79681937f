package httpapi

import "time"

// Config controls access to the /internal routes.
type Config struct {
	ControlToken  string        `env:"DISPATCH_CONTROL_TOKEN"`
	TriggerRate   float64       `env:"DISPATCH_TRIGGER_RATE" envDefault:"2"` // requests per second
	TriggerBurst  int           `env:"DISPATCH_TRIGGER_BURST" envDefault:"10"`
	HealthTimeout time.Duration `env:"DISPATCH_HEALTH_TIMEOUT" envDefault:"2s"`
}
