package intercept

import (
	"strings"
	"unicode"
)

// Operation describes one outgoing GraphQL call as seen by an interceptor
type Operation struct {
	// Name of the operation, explicit or parsed from the query text
	Name string `json:"operationName,omitempty" yaml:"operationName,omitempty"`

	// Raw query text
	Query string `json:"query" yaml:"query"`

	// Operation variables
	Variables map[string]any `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// OperationName extracts the operation name from GraphQL query text.
// Anonymous operations ("{ ... }" or "query { ... }") yield an empty name.
func OperationName(query string) string {
	rest := strings.TrimLeftFunc(query, unicode.IsSpace)

	for _, keyword := range []string{"query", "mutation", "subscription"} {
		if !strings.HasPrefix(rest, keyword) {
			continue
		}

		rest = rest[len(keyword):]
		if len(rest) > 0 && !unicode.IsSpace(rune(rest[0])) && rest[0] != '{' && rest[0] != '(' {
			return "" // not a keyword, but a field starting with one
		}

		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, func(r rune) bool {
			return r == '(' || r == '{' || unicode.IsSpace(r)
		})
		if end < 0 {
			end = len(rest)
		}

		return strings.TrimSpace(rest[:end])
	}

	return ""
}
