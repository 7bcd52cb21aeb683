// internal/estimator/config.go
package estimator

import (
	"fmt"
	"slices"
)

// -- Constants and Configuration --

const (
	DefaultMaxDepth        = 3
	DefaultIncludeMargins  = true
	DefaultIncludePadding  = true
	DefaultUseScrollHeight = false
)

// Display tags with special handling in the deep-recursion policy.
const (
	LayoutGrid  = "grid"
	LayoutFlex  = "flex"
	LayoutBlock = "block"
)

// DefaultLayoutTypes returns the display tags eligible for deep recursion when
// the caller does not override them.
func DefaultLayoutTypes() []string {
	return []string{LayoutGrid, LayoutFlex, LayoutBlock}
}

// Config is a complete estimation configuration. Treat it as immutable once
// built; Resolve and the preset accessors always hand out fresh copies.
type Config struct {
	MaxDepth        int      `json:"maxDepth"`
	IncludeMargins  bool     `json:"includeMargins"`
	IncludePadding  bool     `json:"includePadding"`
	UseScrollHeight bool     `json:"useScrollHeight"`
	LayoutTypes     []string `json:"layoutTypes"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:        DefaultMaxDepth,
		IncludeMargins:  DefaultIncludeMargins,
		IncludePadding:  DefaultIncludePadding,
		UseScrollHeight: DefaultUseScrollHeight,
		LayoutTypes:     DefaultLayoutTypes(),
	}
}

// Validate reports configuration values no estimation run should be given.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative, got %d", c.MaxDepth)
	}
	return nil
}

// HasLayoutType reports whether tag is one of the configured layout types.
func (c Config) HasLayoutType(tag string) bool {
	return slices.Contains(c.LayoutTypes, tag)
}

func (c Config) clone() Config {
	c.LayoutTypes = slices.Clone(c.LayoutTypes)
	if c.LayoutTypes == nil {
		c.LayoutTypes = []string{}
	}
	return c
}

// Options is a partial Config. Nil pointers leave the default in place. A nil
// LayoutTypes slice is "unset"; a non-nil empty slice replaces the defaults and
// disables layout-triggered recursion entirely.
type Options struct {
	MaxDepth        *int     `json:"maxDepth,omitempty"`
	IncludeMargins  *bool    `json:"includeMargins,omitempty"`
	IncludePadding  *bool    `json:"includePadding,omitempty"`
	UseScrollHeight *bool    `json:"useScrollHeight,omitempty"`
	LayoutTypes     []string `json:"layoutTypes,omitempty"`
}

// Int returns a pointer to v, for filling Options literals.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for filling Options literals.
func Bool(v bool) *bool { return &v }

// Resolve overlays the set fields of opts onto the defaults.
func Resolve(opts Options) Config {
	return opts.Over(DefaultConfig())
}

// Over overlays the set fields of o onto base and returns the result. The
// layout type list is replaced wholesale, never merged.
func (o Options) Over(base Config) Config {
	cfg := base.clone()
	if o.MaxDepth != nil {
		cfg.MaxDepth = *o.MaxDepth
	}
	if o.IncludeMargins != nil {
		cfg.IncludeMargins = *o.IncludeMargins
	}
	if o.IncludePadding != nil {
		cfg.IncludePadding = *o.IncludePadding
	}
	if o.UseScrollHeight != nil {
		cfg.UseScrollHeight = *o.UseScrollHeight
	}
	if o.LayoutTypes != nil {
		cfg.LayoutTypes = slices.Clone(o.LayoutTypes)
	}
	return cfg
}

// Merge layers o on top of other: fields set in other win.
func (o Options) Merge(other Options) Options {
	out := o.clone()
	if other.MaxDepth != nil {
		out.MaxDepth = Int(*other.MaxDepth)
	}
	if other.IncludeMargins != nil {
		out.IncludeMargins = Bool(*other.IncludeMargins)
	}
	if other.IncludePadding != nil {
		out.IncludePadding = Bool(*other.IncludePadding)
	}
	if other.UseScrollHeight != nil {
		out.UseScrollHeight = Bool(*other.UseScrollHeight)
	}
	if other.LayoutTypes != nil {
		out.LayoutTypes = slices.Clone(other.LayoutTypes)
	}
	return out
}

func (o Options) clone() Options {
	out := Options{LayoutTypes: slices.Clone(o.LayoutTypes)}
	if o.LayoutTypes != nil && out.LayoutTypes == nil {
		out.LayoutTypes = []string{}
	}
	if o.MaxDepth != nil {
		out.MaxDepth = Int(*o.MaxDepth)
	}
	if o.IncludeMargins != nil {
		out.IncludeMargins = Bool(*o.IncludeMargins)
	}
	if o.IncludePadding != nil {
		out.IncludePadding = Bool(*o.IncludePadding)
	}
	if o.UseScrollHeight != nil {
		out.UseScrollHeight = Bool(*o.UseScrollHeight)
	}
	return out
}
