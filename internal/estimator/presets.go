// internal/estimator/presets.go
package estimator

import (
	"fmt"
	"sort"
)

// Preset names.
const (
	PresetFast          = "fast"
	PresetStandard      = "standard"
	PresetPrecise       = "precise"
	PresetGridOptimized = "gridOptimized"
)

// presets is the static preset table. Never hand out the stored values
// directly; Preset and Presets return copies.
var presets = map[string]Options{
	PresetFast: {
		MaxDepth:        Int(1),
		UseScrollHeight: Bool(true),
	},
	PresetStandard: {},
	PresetPrecise: {
		MaxDepth:       Int(5),
		IncludeMargins: Bool(true),
		IncludePadding: Bool(true),
	},
	PresetGridOptimized: {
		MaxDepth:       Int(2),
		LayoutTypes:    []string{LayoutGrid},
		IncludeMargins: Bool(true),
		IncludePadding: Bool(false),
	},
}

// Preset returns a copy of the named partial configuration.
func Preset(name string) (Options, bool) {
	opts, ok := presets[name]
	if !ok {
		return Options{}, false
	}
	return opts.clone(), true
}

// MustPreset is Preset for names known at compile time.
func MustPreset(name string) Options {
	opts, ok := Preset(name)
	if !ok {
		panic(fmt.Sprintf("estimator: unknown preset %q", name))
	}
	return opts
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Presets returns every preset resolved against the defaults, keyed by name.
func Presets() map[string]Config {
	out := make(map[string]Config, len(presets))
	for name, opts := range presets {
		out[name] = Resolve(opts)
	}
	return out
}
