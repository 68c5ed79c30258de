// Package style validates message colors and manages the preset registry.
//
// A preset is a named, reusable style ("error", "warning", ...). The builtin
// presets are registered at construction; extra presets come from the config
// file. The registry is static after startup, so unlike the buffer it carries
// its own lock and is safe for concurrent use.
//
// Design rules:
//   - Preset names must be 1-64 lowercase alphanumeric characters or hyphens.
//   - Colors are accepted in #rgb, #rrggbb or rgba(r,g,b,a) form; the empty
//     string means "inherit the bar default".
//   - Builtin presets cannot be replaced.
package style

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/sneh-joshi/flashline/internal/types"
)

// WaitingBackground is the background applied while more messages sit in the
// wait queue behind the one displayed.
const WaitingBackground = "rgba(170,255,255,255)"

// Builtin preset names.
const (
	PresetError       = "error"
	PresetWarning     = "warning"
	PresetAskForInput = "ask-for-input"
)

// nameRe validates preset names: 1–64 chars, lowercase letters/digits/hyphens,
// must start with a letter or digit.
var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{0,63}$`)

var (
	hexRe  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbaRe = regexp.MustCompile(`^rgba\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
)

// ErrNotFound is returned when a preset that doesn't exist is requested.
var ErrNotFound = errors.New("style: preset not found")

// ErrAlreadyExists is returned when Register is called for an existing preset.
var ErrAlreadyExists = errors.New("style: preset already exists")

// ErrInvalidName is returned when a preset name fails validation.
var ErrInvalidName = errors.New("style: invalid preset name")

// ErrInvalidColor is returned when a color fails validation.
var ErrInvalidColor = errors.New("style: invalid color")

// ValidColor reports whether s is a supported color form. The empty string
// is valid ("inherit").
func ValidColor(s string) bool {
	if s == "" {
		return true
	}
	if hexRe.MatchString(s) {
		return true
	}
	m := rgbaRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	for _, comp := range m[1:] {
		n, err := strconv.Atoi(comp)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// Validate checks both colors of a style.
func Validate(st types.Style) error {
	if !ValidColor(st.Foreground) {
		return fmt.Errorf("%w: foreground %q", ErrInvalidColor, st.Foreground)
	}
	if !ValidColor(st.Background) {
		return fmt.Errorf("%w: background %q", ErrInvalidColor, st.Background)
	}
	return nil
}

// TerminalColor normalizes a color into the #-hex form terminal renderers
// accept. The rgba alpha component is dropped (terminal cells carry no alpha
// channel). Invalid or empty input returns the empty string.
func TerminalColor(s string) string {
	if s == "" {
		return ""
	}
	if hexRe.MatchString(s) {
		return s
	}
	m := rgbaRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	r, _ := strconv.Atoi(m[1])
	g, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[3])
	if r > 255 || g > 255 || b > 255 {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ValidateName reports whether name is a valid preset name without touching
// the registry.
func ValidateName(name string) bool { return nameRe.MatchString(name) }

// Preset is a named style.
type Preset struct {
	Name  string      `json:"name"`
	Style types.Style `json:"style"`
}

// Registry holds all registered presets.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

// NewRegistry returns a Registry pre-loaded with the builtin presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]*Preset)}
	for _, p := range []Preset{
		{Name: PresetError, Style: types.Style{Foreground: "#ffff00", Background: "#aa0000", Bold: true}},
		{Name: PresetWarning, Style: types.Style{Foreground: "#000000", Background: "#ffff00", Bold: true}},
		{Name: PresetAskForInput, Style: types.Style{Foreground: "#ffffff", Background: "#005500", Bold: true}},
	} {
		cp := p
		r.presets[p.Name] = &cp
	}
	return r
}

// Register adds a preset.
// Returns ErrAlreadyExists if the name is already registered (builtins included).
// Returns ErrInvalidName or ErrInvalidColor when validation fails.
func (r *Registry) Register(name string, st types.Style) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := Validate(st); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presets[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	r.presets[name] = &Preset{Name: name, Style: st}
	return nil
}

// Exists reports whether the given preset is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.presets[name]
	return ok
}

// Get returns the Preset record, or ErrNotFound.
func (r *Registry) Get(name string) (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	// Return a copy to avoid mutation of internal state.
	cp := *p
	return &cp, nil
}

// List returns all registered presets sorted by name.
func (r *Registry) List() []*Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
