package estimator

import (
	"errors"
	"fmt"

	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sarchlab/noclat/noc/routing"
)

var (
	// ErrInvalidConfig is reported when the topology, the routing, or the
	// task cannot be estimated.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNumericalInstability is reported when the packet load of a channel
	// reaches its service rate, or when the solver produces a negative or
	// non-finite blocking time.
	ErrNumericalInstability = errors.New("numerical instability")
)

// ConfigError is the error returned for invalid configurations. It matches
// both ErrInvalidConfig and the error that caused it.
type ConfigError struct {
	Reason string
	Err    error
}

func newConfigError(err error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrInvalidConfig, e.Reason)
	}

	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfig}
	}

	return []error{ErrInvalidConfig, e.Err}
}

// InstabilityError tells where the solver gave up. Load and ServiceRate are
// in packets per cycle; Value is the offending blocking time.
type InstabilityError struct {
	Router      int
	InPort      routing.Port
	OutPort     routing.Port
	Level       int
	Load        float64
	ServiceRate float64
	Value       float64
}

// Saturated returns true if the channel load reaches its service rate.
func (e *InstabilityError) Saturated() bool {
	return e.Load >= e.ServiceRate
}

func (e *InstabilityError) Error() string {
	if e.Saturated() {
		return fmt.Sprintf(
			"%s: load %v reaches service rate %v at router %d, output %s, "+
				"residual hop %d",
			ErrNumericalInstability, e.Load, e.ServiceRate, e.Router,
			mesh.PortName(e.OutPort), e.Level)
	}

	return fmt.Sprintf(
		"%s: blocking time %v at router %d, %s->%s, residual hop %d",
		ErrNumericalInstability, e.Value, e.Router,
		mesh.PortName(e.InPort), mesh.PortName(e.OutPort), e.Level)
}

func (e *InstabilityError) Unwrap() error {
	return ErrNumericalInstability
}
