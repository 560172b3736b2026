package intercept

import "reflect"

// Symbols exposes this package to interpreted interceptor sources.
// The map layout follows yaegi's extract format.
var Symbols = map[string]map[string]reflect.Value{
	"github.com/sre-norns/gantry/pkg/intercept/intercept": {
		"Operation":     reflect.ValueOf((*Operation)(nil)),
		"OperationName": reflect.ValueOf(OperationName),
	},
}
