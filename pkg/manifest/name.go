package manifest

import "fmt"

var ErrInvalidResourceName = fmt.Errorf("invalid resource name")

const maxNameLength = 253

// ValidateName checks that a resource name is a DNS-subdomain-like identifier:
// lower-case alphanumerics, '-' or '.', starting and ending with an alphanumeric.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > maxNameLength {
		return fmt.Errorf("%w: must be 1..%d characters, got %d", ErrInvalidResourceName, maxNameLength, len(name))
	}

	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' || r == '.':
			if i == 0 || i == len(name)-1 {
				return fmt.Errorf("%w: %q must start and end with an alphanumeric", ErrInvalidResourceName, name)
			}
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidResourceName, name, string(r))
		}
	}

	return nil
}
