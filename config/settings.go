// Package config loads, defaults, and validates handler.HandlerSettings
// from an INI file, adapted from the teacher's cli/config package
// (section-per-job INI layout) but scoped to the Loaded Handler engine's
// single settings struct.
package config

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/creasty/defaults"
	"gopkg.in/ini.v1"

	"github.com/netresearch/loadedhandler/handler"
)

// File is the on-disk shape: one [handler "name"] section per Handler,
// mirroring the teacher's "[job-run \"name\"]" convention.
type File struct {
	Handlers map[string]*handler.HandlerSettings
}

// Load reads path, applies creasty/defaults to every section, and
// validates each via Validate. The returned error wraps the first
// decoding, sanitizing or validation failure encountered; in that case the
// returned File is nil and no partial result is returned.
func Load(path string) (*File, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}

	file := &File{Handlers: make(map[string]*handler.HandlerSettings)}

	for _, section := range cfg.Sections() {
		name := sectionHandlerName(section.Name())
		if name == "" {
			continue
		}

		settings := &handler.HandlerSettings{}
		if err := section.MapTo(settings); err != nil {
			return nil, fmt.Errorf("config: decoding section %q: %w", section.Name(), err)
		}

		if err := defaults.Set(settings); err != nil {
			return nil, fmt.Errorf("config: defaulting section %q: %w", section.Name(), err)
		}

		if settings.HandlerName == "" {
			settings.HandlerName = name
		}

		if err := sanitizeSettings(settings); err != nil {
			return nil, fmt.Errorf("config: section %q: %w", section.Name(), err)
		}

		if err := Validate(settings); err != nil {
			return nil, fmt.Errorf("config: section %q: %w", section.Name(), err)
		}

		file.Handlers[name] = settings
	}

	return file, nil
}

// Hash renders a stable fingerprint of settings' `hash:"true"` tagged
// fields, the same drift-detection building block as the teacher's
// RunJobConfig.Hash / core.BareJob.Hash.
func Hash(settings *handler.HandlerSettings) (string, error) {
	var hash string
	t := reflect.TypeOf(settings).Elem()
	v := reflect.ValueOf(settings).Elem()
	if err := handler.GetHash(t, v, &hash); err != nil {
		return "", fmt.Errorf("config: hashing settings: %w", err)
	}
	return hash, nil
}

// Reload re-reads path and reports which handler section names were added,
// removed, or changed relative to previous, by comparing Hash output per
// name - mirroring the teacher's UnifiedConfigManager.hasJobChanged used to
// decide whether a running job needs to be rebuilt after a config change.
// Reload does not mutate previous or apply anything to a running Handler;
// it is the caller's job to act on the returned names (e.g. rebuild the
// affected handlers via plugin.Build).
func Reload(path string, previous *File) (*File, []string, error) {
	next, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool, len(next.Handlers))
	var changed []string

	for name, settings := range next.Handlers {
		seen[name] = true

		oldSettings, ok := previous.Handlers[name]
		if !ok {
			changed = append(changed, name)
			continue
		}

		oldHash, err1 := Hash(oldSettings)
		newHash, err2 := Hash(settings)
		if err1 != nil || err2 != nil || oldHash != newHash {
			changed = append(changed, name)
		}
	}

	for name := range previous.Handlers {
		if !seen[name] {
			changed = append(changed, name)
		}
	}

	sort.Strings(changed)
	return next, changed, nil
}

// sectionHandlerName extracts "name" from an ini section header shaped
// `handler "name"`, and "" for sections that don't match (DEFAULT, etc).
func sectionHandlerName(header string) string {
	const prefix = `handler "`
	if len(header) < len(prefix)+1 || header[:len(prefix)] != prefix || header[len(header)-1] != '"' {
		return ""
	}
	return header[len(prefix) : len(header)-1]
}
