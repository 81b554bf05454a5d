// Package plugin defines the user-supplied adapter contract from spec.md
// §6 and a name-based registry that substitutes the out-of-scope Package
// Loader's compile step with in-process registration.
package plugin

import "github.com/netresearch/loadedhandler/handler"

// Initializer is the first object a plugin must supply (§6.1): it reports
// the HandlerSettings the Host should construct the Handler with, plus an
// opaque custom-settings payload forwarded to the handler type.
type Initializer interface {
	GetHandlerSettings() handler.HandlerSettings
	GetCustomHandlerSettings() any
}

// HandlerPlugin is the "handler type" §6.2 describes: it implements the
// §4.2 capability set (handler.Generator) plus the two extra lifecycle
// hooks the plugin contract requires before the core can drive it.
type HandlerPlugin interface {
	handler.Generator

	// Name identifies the concrete handler type; the registry matches it
	// against HandlerSettings.HandlerName, substituting the "name
	// attribute" match §6 describes.
	Name() string

	// InitializeCustomSettings receives the Initializer's opaque payload
	// before Initialize is called.
	InitializeCustomSettings(custom any) error

	// Initialize performs any one-time setup the plugin needs before the
	// core starts driving it through handler.Generator.
	Initialize() error
}
