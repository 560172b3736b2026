package bridge

import (
	"encoding/json"
	"fmt"
	"time"
)

var ErrCallTimeout = fmt.Errorf("bridged callback timed out")

const (
	// DefaultCallTimeout bounds an ordinary bridge round trip
	DefaultCallTimeout = 4 * time.Second

	// DebugCallTimeout substitutes for the default when the server runs in
	// debug mode and a human is stepping through the remote side
	DebugCallTimeout = time.Minute
)

// EffectiveTimeout resolves the timeout policy: an explicit per-call value
// always wins, otherwise the debug ceiling or the short default applies.
func EffectiveTimeout(explicit time.Duration, debug bool) time.Duration {
	if explicit > 0 {
		return explicit
	}
	if debug {
		return DebugCallTimeout
	}

	return DefaultCallTimeout
}

// CallRequest carries a bridged callback to the process that owns the live
// application context. The callback travels as self-contained Go source text:
// nothing closed over on the caller side survives the trip, only identifiers
// resolvable remotely are valid.
type CallRequest struct {
	// Name for log correlation, derived from source when empty
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Source of the callback. Must declare `func Run(call *bridge.Call) (any, error)`
	Source string `json:"source" yaml:"source" binding:"required"`

	// Args is the caller's option bag, handed to the callback verbatim.
	// Logging and timeout options are local concerns and never forwarded.
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
}

// RemoteError describes a failure raised by the remote execution
type RemoteError struct {
	Message string `json:"message" yaml:"message"`
	Stack   string `json:"stack,omitempty" yaml:"stack,omitempty"`
}

func (e *RemoteError) Error() string {
	return e.Message
}

// CallResponse is the other half of the round trip: exactly one of Value or
// Error is set. Value is an opaque serialized form of whatever the callback
// returned.
type CallResponse struct {
	Value json.RawMessage `json:"value,omitempty" yaml:"value,omitempty"`
	Error *RemoteError    `json:"error,omitempty" yaml:"error,omitempty"`
}

type callOptions struct {
	name    string
	args    map[string]any
	timeout time.Duration
	quiet   bool
}

type CallOption func(*callOptions)

// WithArg adds one key to the option bag forwarded to the callback
func WithArg(key string, value any) CallOption {
	return func(o *callOptions) {
		if o.args == nil {
			o.args = make(map[string]any)
		}
		o.args[key] = value
	}
}

func WithArgs(args map[string]any) CallOption {
	return func(o *callOptions) {
		for key, value := range args {
			WithArg(key, value)(o)
		}
	}
}

// WithTimeout overrides the timeout policy for this call only
func WithTimeout(timeout time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = timeout
	}
}

// WithoutLog suppresses the per-call log entry
func WithoutLog() CallOption {
	return func(o *callOptions) {
		o.quiet = true
	}
}

func WithName(name string) CallOption {
	return func(o *callOptions) {
		o.name = name
	}
}

// Options folds CallOptions into a request plus the local-only settings
func Options(source string, options ...CallOption) (CallRequest, time.Duration, bool) {
	var opts callOptions
	for _, option := range options {
		option(&opts)
	}

	return CallRequest{
		Name:   opts.name,
		Source: source,
		Args:   opts.args,
	}, opts.timeout, opts.quiet
}
