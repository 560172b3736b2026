package appctx

import "reflect"

// Symbols exposes this package to interpreted callback sources
var Symbols = map[string]map[string]reflect.Value{
	"github.com/sre-norns/gantry/pkg/appctx/appctx": {
		"Context": reflect.ValueOf((*Context)(nil)),
		"Scratch": reflect.ValueOf((*Scratch)(nil)),
		"Project": reflect.ValueOf((*Project)(nil)),

		"ErrUnknownProject": reflect.ValueOf(&ErrUnknownProject).Elem(),
		"ErrNoProjectOpen":  reflect.ValueOf(&ErrNoProjectOpen).Elem(),
	},
}
