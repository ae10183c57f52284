package text

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// DefaultFamily is the proportional built-in family.
	DefaultFamily = "Go"
	// MonoFamily is the fixed-pitch built-in family.
	MonoFamily = "Go Mono"
)

// builtinFaces are parsed once and shared read-only by every registry.
var builtinFaces = sync.OnceValue(func() map[FontKey]*Face {
	programs := map[FontKey][]byte{
		{Family: DefaultFamily}:                           goregular.TTF,
		{Family: DefaultFamily, Bold: true}:               gobold.TTF,
		{Family: DefaultFamily, Italic: true}:             goitalic.TTF,
		{Family: DefaultFamily, Bold: true, Italic: true}: gobolditalic.TTF,
		{Family: MonoFamily}:                              gomono.TTF,
		{Family: MonoFamily, Bold: true}:                  gomonobold.TTF,
		{Family: MonoFamily, Italic: true}:                gomonoitalic.TTF,
		{Family: MonoFamily, Bold: true, Italic: true}:    gomonobolditalic.TTF,
	}
	faces := make(map[FontKey]*Face, len(programs))
	for key, program := range programs {
		face, err := NewFace(key, program)
		if err != nil {
			panic(err) // the Go fonts always parse
		}
		faces[key] = face
	}
	return faces
})

// familyAliases maps common family names and the generic families onto
// the built-in ones.
var familyAliases = map[string]string{
	"serif":           DefaultFamily,
	"sans-serif":      DefaultFamily,
	"sans":            DefaultFamily,
	"system-ui":       DefaultFamily,
	"cursive":         DefaultFamily,
	"fantasy":         DefaultFamily,
	"go":              DefaultFamily,
	"arial":           DefaultFamily,
	"helvetica":       DefaultFamily,
	"helvetica neue":  DefaultFamily,
	"verdana":         DefaultFamily,
	"tahoma":          DefaultFamily,
	"trebuchet ms":    DefaultFamily,
	"times":           DefaultFamily,
	"times new roman": DefaultFamily,
	"georgia":         DefaultFamily,
	"garamond":        DefaultFamily,
	"monospace":       MonoFamily,
	"go mono":         MonoFamily,
	"courier":         MonoFamily,
	"courier new":     MonoFamily,
	"consolas":        MonoFamily,
	"menlo":           MonoFamily,
	"monaco":          MonoFamily,
	"lucida console":  MonoFamily,
}

// Registry resolves font family lists to faces for one document. Faces
// registered from @font-face rules take precedence over the built-ins.
type Registry struct {
	logger *zap.Logger

	mu         sync.RWMutex
	registered map[FontKey]*Face
	missed     map[string]bool
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:     logger,
		registered: make(map[FontKey]*Face),
		missed:     make(map[string]bool),
	}
}

// Register parses program and makes it available under family. The first
// registration of a key wins.
func (r *Registry) Register(family string, bold, italic bool, program []byte) error {
	key := FontKey{Family: normalizeFamily(family), Bold: bold, Italic: italic}
	face, err := NewFace(FontKey{Family: strings.TrimSpace(family), Bold: bold, Italic: italic}, program)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.registered[key]; ok {
		return nil
	}
	r.registered[key] = face
	r.logger.Debug("registered font", zap.Stringer("font", face.Key), zap.String("name", face.Name))
	return nil
}

// Match returns the first family in families that resolves, trying
// registered faces, then the alias table. It never returns nil: the
// default family is the final fallback.
func (r *Registry) Match(families []string, bold, italic bool) *Face {
	for _, family := range families {
		name := normalizeFamily(family)
		if name == "" {
			continue
		}
		if face := r.registeredFace(name, bold, italic); face != nil {
			return face
		}
		if alias, ok := familyAliases[name]; ok {
			return Builtin(alias, bold, italic)
		}
		r.noteMiss(family)
	}
	return Builtin(DefaultFamily, bold, italic)
}

func (r *Registry) registeredFace(name string, bold, italic bool) *Face {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range []FontKey{
		{Family: name, Bold: bold, Italic: italic},
		{Family: name, Bold: bold},
		{Family: name, Italic: italic},
		{Family: name},
	} {
		if face, ok := r.registered[k]; ok {
			return face
		}
	}
	return nil
}

func (r *Registry) noteMiss(family string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missed[family] {
		return
	}
	r.missed[family] = true
	r.logger.Debug("font family not available, trying next", zap.String("family", family))
}

// Builtin returns a built-in face; unknown families get the default one.
func Builtin(family string, bold, italic bool) *Face {
	faces := builtinFaces()
	if face, ok := faces[FontKey{Family: family, Bold: bold, Italic: italic}]; ok {
		return face
	}
	return faces[FontKey{Family: DefaultFamily, Bold: bold, Italic: italic}]
}

func normalizeFamily(family string) string {
	family = strings.Trim(strings.TrimSpace(family), `"'`)
	return strings.ToLower(strings.Join(strings.Fields(family), " "))
}
