package plugin

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/netresearch/loadedhandler/handler"
)

// Factory constructs a fresh HandlerPlugin instance for one Handler.
type Factory func() HandlerPlugin

// Registry maps a HandlerName to the factory that builds its handler type,
// the in-process stand-in for the out-of-scope Package Loader's
// discover-by-name-attribute step (§6).
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates name with factory. A later call with the same name
// replaces the earlier registration.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Build resolves init.GetHandlerSettings().HandlerName against the
// registry, constructs the plugin, and wires it into a new *handler.Handler.
// It reports the §6 failure reason codes through the returned error's
// underlying type rather than the handler's own Initialize, since plugin
// discovery/construction happens one step before the core's Initialize.
func Build(descriptor handler.JobScriptDescriptor, init Initializer, registry *Registry, logger handler.Logger) (*handler.Handler, *handler.InitResult, error) {
	if init == nil {
		return nil, nil, &handler.InitError{
			Reason:  handler.ReasonInitializerMissing,
			Message: "no Initializer supplied",
			Err:     handler.ErrPluginMissing,
		}
	}

	settings := init.GetHandlerSettings()

	factory, ok := registry.Lookup(settings.HandlerName)
	if !ok {
		return nil, nil, &handler.InitError{
			Reason:  handler.ReasonHandlerMissing,
			Message: fmt.Sprintf("no handler type registered for %q", settings.HandlerName),
			Err:     handler.ErrHandlerMissing,
		}
	}

	hp := factory()

	if err := hp.InitializeCustomSettings(init.GetCustomHandlerSettings()); err != nil {
		return nil, nil, &handler.InitError{
			Reason:  handler.ReasonTypeException,
			Message: fmt.Sprintf("InitializeCustomSettings: %v", err),
			Err:     handler.ErrTypeException,
		}
	}

	if err := hp.Initialize(); err != nil {
		return nil, nil, &handler.InitError{
			Reason:  handler.ReasonTypeException,
			Message: fmt.Sprintf("Initialize: %v", err),
			Err:     handler.ErrTypeException,
		}
	}

	h := handler.NewHandler(descriptor, settings, hp, logger)

	result, err := h.Initialize()
	if err != nil {
		return nil, nil, err
	}

	return h, result, nil
}

// descriptorDocument mirrors handler.JobScriptDescriptor for YAML decoding;
// §6's construction input is richer than a single INI job line (library
// refs, worker deps), so a Host may ship it as a YAML file instead.
type descriptorDocument struct {
	PackageName      string   `yaml:"packageName"`
	ScriptText       string   `yaml:"scriptText"`
	LibraryRefs      []string `yaml:"libraryRefs"`
	WorkerDeps       []string `yaml:"workerDeps"`
	PackageFolder    string   `yaml:"packageFolder"`
	AssemblyFileName string   `yaml:"assemblyFileName"`
}

// LoadDescriptorYAML decodes a handler.JobScriptDescriptor from YAML, an
// alternate to constructing one by hand from INI for Hosts that keep their
// compiled-package metadata as a file alongside the job script.
func LoadDescriptorYAML(data []byte) (handler.JobScriptDescriptor, error) {
	var doc descriptorDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return handler.JobScriptDescriptor{}, fmt.Errorf("plugin: decoding descriptor YAML: %w", err)
	}

	return handler.JobScriptDescriptor{
		PackageName:      doc.PackageName,
		ScriptText:       doc.ScriptText,
		LibraryRefs:      doc.LibraryRefs,
		WorkerDeps:       doc.WorkerDeps,
		PackageFolder:    doc.PackageFolder,
		AssemblyFileName: doc.AssemblyFileName,
	}, nil
}
