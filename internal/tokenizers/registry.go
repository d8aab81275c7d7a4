package tokenizers

import (
	"fmt"

	"github.com/custodia-labs/medgrain/internal/core/ports/driven"
	"github.com/custodia-labs/medgrain/internal/tokenizers/pinyin"
	"github.com/custodia-labs/medgrain/internal/tokenizers/plain"
	"github.com/custodia-labs/medgrain/internal/tokenizers/stroke"
)

// Variant names accepted by the registry.
const (
	NamePlain  = "plain"
	NameStroke = "stroke"
	NamePinyin = "pinyin"
)

// BuilderFunc creates a Tokenizer from generic config.
// Config is a map of variant-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.Tokenizer, error)

// Registry maps tokenizer variant names to their builders.
// It allows dynamic construction of tokenizers from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty tokenizer registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Defaults creates a registry with the three built-in variants
// registered.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(NamePlain, func(_ map[string]any) (driven.Tokenizer, error) {
		return plain.New(), nil
	})
	r.Register(NameStroke, func(cfg map[string]any) (driven.Tokenizer, error) {
		var opts []stroke.Option
		if path, ok := cfg["table_path"].(string); ok && path != "" {
			opts = append(opts, stroke.WithTablePath(path))
		}
		return stroke.New(opts...)
	})
	r.Register(NamePinyin, func(cfg map[string]any) (driven.Tokenizer, error) {
		var opts []pinyin.Option
		if path, ok := cfg["table_path"].(string); ok && path != "" {
			opts = append(opts, pinyin.WithTablePath(path))
		}
		return pinyin.New(opts...)
	})
	return r
}

// Register adds a tokenizer builder to the registry.
// Name should be unique and match the variant's signature prefix.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a tokenizer by name with the given config.
// Returns an error if the variant name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Tokenizer, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown tokenizer: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a tokenizer with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered variant names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// DefaultNGram returns the n-gram order that works well for a
// variant's token granularity: single strokes carry little signal on
// their own, single syllables a lot.
func DefaultNGram(name string) int {
	switch name {
	case NameStroke:
		return 3
	case NamePlain:
		return 2
	default:
		return 1
	}
}
