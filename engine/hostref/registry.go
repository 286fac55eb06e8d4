// Package hostref is an illustrative, non-authoritative implementation of
// the host evaluator contract: a registered-functions table with
// render-time call-result caching, and a reference condition evaluator. The
// real host is explicitly out of scope; this package exists so
// the compiled artifact has something to run against in tests and demos, and
// is not a claim of security or completeness.
package hostref

import (
	"fmt"
	"reflect"
	"sync"
)

// ErrUnknownTemplateFunction is raised when a dispatch-prefixed name has no
// registration.
type ErrUnknownTemplateFunction struct {
	Name string
}

func (e *ErrUnknownTemplateFunction) Error() string {
	return fmt.Sprintf("unknown template function: %q", e.Name)
}

// registration is one entry in the functions table.
type registration struct {
	call       reflect.Value
	cacheBound int
}

// cacheEntry is one (name, args) call-result cache row. hits counts calls
// served from cache since the last recomputation.
type cacheEntry struct {
	result []any
	err    error
	hits   int
}

// Registry is the render-time registered functions table. Re-registration under the same name is
// rejected rather than silently overwritten, matching the source's
// fatal-on-redefinition policy.
type Registry struct {
	mu    sync.Mutex
	fns   map[string]registration
	cache map[string]cacheEntry
}

// NewRegistry returns an empty functions table.
func NewRegistry() *Registry {
	return &Registry{
		fns:   make(map[string]registration),
		cache: make(map[string]cacheEntry),
	}
}

// Register adds fn under name with the given cache_bound (0 disables result
// caching for this name). Re-registering an existing name is an error.
func (r *Registry) Register(name string, fn any, cacheBound int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fns[name]; exists {
		return fmt.Errorf("function %q is already registered", name)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("function %q: not a callable", name)
	}
	r.fns[name] = registration{call: v, cacheBound: cacheBound}
	return nil
}

// Dispatch resolves name against the registered functions table and invokes
// it with args, honoring render-time call-result caching: the cache entry is recomputed after
// cache_bound repeated calls with identical arguments, or when empty; the
// hit counter resets on each recomputation.
func (r *Registry) Dispatch(name string, args ...any) (any, error) {
	r.mu.Lock()
	reg, ok := r.fns[name]
	r.mu.Unlock()
	if !ok {
		return nil, &ErrUnknownTemplateFunction{Name: name}
	}

	if reg.cacheBound == 0 {
		return firstResult(r.call(reg, args))
	}

	key := cacheKey(name, args)

	r.mu.Lock()
	entry, found := r.cache[key]
	if found && entry.hits < reg.cacheBound {
		entry.hits++
		r.cache[key] = entry
		r.mu.Unlock()
		return firstResult(entry.result, entry.err)
	}
	r.mu.Unlock()

	results, err := r.call(reg, args)
	r.mu.Lock()
	r.cache[key] = cacheEntry{result: results, err: err, hits: 0}
	r.mu.Unlock()
	return firstResult(results, err)
}

func (r *Registry) call(reg registration, args []any) ([]any, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.New(reg.call.Type().In(i)).Elem()
			continue
		}
		in[i] = reflect.ValueOf(a)
	}
	out := reg.call.Call(in)
	results := make([]any, 0, len(out))
	var err error
	for _, o := range out {
		if e, ok := o.Interface().(error); ok {
			err = e
			continue
		}
		results = append(results, o.Interface())
	}
	return results, err
}

func firstResult(results []any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func cacheKey(name string, args []any) string {
	return fmt.Sprintf("%s|%v", name, args)
}
