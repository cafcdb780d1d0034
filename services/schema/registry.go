package schema

import (
	"context"
	"fmt"
	"sync"

	"crosspost/pkg/celengine"
	"crosspost/pkg/errutil"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// OptionsLoader produces the enumerated choices for a field whose options are
// not known statically. Loaders run on demand and never participate in
// validation of other fields.
type OptionsLoader func(ctx context.Context, platform Platform) ([]Option, error)

// Registry is the catalogue of platform capability schemas. Contents are
// read-only shared state after construction except through Register, which
// exists so new platforms can be added without touching consumers.
type Registry struct {
	mu        sync.RWMutex
	schemas   map[Platform]Schema
	order     []Platform
	loaders   map[string]OptionsLoader
	evaluator *celengine.Evaluator
	logger    *zap.Logger
}

type RegistryParams struct {
	fx.In
	Logger *zap.Logger `optional:"true"`
}

func NewRegistry(p RegistryParams) *Registry {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		schemas:   make(map[Platform]Schema),
		loaders:   make(map[string]OptionsLoader),
		evaluator: celengine.NewEvaluator(),
		logger:    logger,
	}
	for _, s := range builtinSchemas() {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a platform schema.
func (r *Registry) Register(s Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.Platform]; !ok {
		r.order = append(r.order, s.Platform)
	}
	r.schemas[s.Platform] = s
}

// RegisterLoader binds a named options loader referenced by schema fields.
func (r *Registry) RegisterLoader(name string, loader OptionsLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = loader
}

// Get returns the capability schema for the platform.
func (r *Registry) Get(platform Platform) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[platform]
	if !ok {
		return Schema{}, errutil.BadRequest(fmt.Sprintf("unknown platform %q", string(platform)))
	}
	return s, nil
}

// Platforms lists registered platforms in registration order.
func (r *Registry) Platforms() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.schemas[p])
	}
	return out
}

// Visible reports whether the field is visible given the values resolved so
// far. A field with no predicate is always visible.
func (r *Registry) Visible(f Field, values map[string]any) (bool, error) {
	if f.ShowWhen == "" {
		return true, nil
	}
	ok, err := r.evaluator.EvalBool(f.ShowWhen, values)
	if err != nil {
		return false, fmt.Errorf("evaluate visibility of %q: %w", f.Key, err)
	}
	return ok, nil
}

// TagLimit returns the platform's tag ceiling. The second result is false
// when the platform is unbounded or has no tag field.
func (r *Registry) TagLimit(platform Platform) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[platform]
	if !ok || s.TagLimit == nil {
		return 0, false
	}
	return *s.TagLimit, true
}

// Options resolves the runtime choices of a dynamically loaded field.
func (r *Registry) Options(ctx context.Context, platform Platform, key string) ([]Option, error) {
	s, err := r.Get(platform)
	if err != nil {
		return nil, err
	}
	f, ok := s.FieldByKey(key)
	if !ok {
		return nil, errutil.NotFound(fmt.Sprintf("platform %q has no field %q", platform, key))
	}
	if f.LoadOptions == "" {
		return f.Options, nil
	}

	r.mu.RLock()
	loader, ok := r.loaders[f.LoadOptions]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("options loader not registered",
			zap.String("platform", string(platform)),
			zap.String("field", key),
			zap.String("loader", f.LoadOptions),
		)
		return nil, nil
	}

	opts, err := loader(ctx, platform)
	if err != nil {
		return nil, errutil.BadGateway(fmt.Sprintf("load options for %s.%s", platform, key), errutil.WithErr(err))
	}
	return opts, nil
}
