package launch

import (
	"fmt"
	"strings"
)

var (
	ErrDanglingFlagValue = fmt.Errorf("flag expects a value")
	ErrMalformedEnvPair  = fmt.Errorf("malformed env pair, expected key=value")
)

// Args is the structured configuration describing how an application instance
// under test should start. It is produced by parsing raw argv and travels
// with the reset-launch-arguments task.
type Args struct {
	// Raw argv the args were parsed from, kept for diagnostics
	Argv []string `json:"argv,omitempty" yaml:"argv,omitempty"`

	// Name of the test project to open on start
	Project string `json:"project,omitempty" yaml:"project,omitempty"`

	// Browser the caller intends to drive against the instance
	Browser string `json:"browser,omitempty" yaml:"browser,omitempty"`

	// Headless requests a windowless browser run
	Headless bool `json:"headless,omitempty" yaml:"headless,omitempty"`

	// Extra environment for the instance
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Flags this layer does not interpret, preserved verbatim
	Extra []string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ParseArgv folds raw command line arguments into structured launch Args.
// Unknown flags are preserved rather than rejected: the application under
// test owns their meaning.
func ParseArgv(argv []string) (Args, error) {
	result := Args{
		Argv: argv,
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "--project":
			if i+1 >= len(argv) {
				return result, fmt.Errorf("%w: %q", ErrDanglingFlagValue, arg)
			}
			i++
			result.Project = argv[i]
		case "--browser":
			if i+1 >= len(argv) {
				return result, fmt.Errorf("%w: %q", ErrDanglingFlagValue, arg)
			}
			i++
			result.Browser = argv[i]
		case "--headless":
			result.Headless = true
		case "--env":
			if i+1 >= len(argv) {
				return result, fmt.Errorf("%w: %q", ErrDanglingFlagValue, arg)
			}
			i++
			key, value, found := strings.Cut(argv[i], "=")
			if !found || key == "" {
				return result, fmt.Errorf("%w: %q", ErrMalformedEnvPair, argv[i])
			}
			if result.Env == nil {
				result.Env = make(map[string]string)
			}
			result.Env[key] = value
		default:
			result.Extra = append(result.Extra, arg)
		}
	}

	return result, nil
}

// ToArgv renders Args back into a command line
func (a Args) ToArgv() []string {
	result := make([]string, 0, len(a.Extra)+8)

	if a.Project != "" {
		result = append(result, "--project", a.Project)
	}
	if a.Browser != "" {
		result = append(result, "--browser", a.Browser)
	}
	if a.Headless {
		result = append(result, "--headless")
	}
	for key, value := range a.Env {
		result = append(result, "--env", fmt.Sprintf("%s=%s", key, value))
	}

	return append(result, a.Extra...)
}
