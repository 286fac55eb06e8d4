package engine

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/sfire-framework/sfire-template/engine/hostref"
)

// FiberViewsAdapter implements fiber.Views against an Engine. Render serves
// the compiled artifact text itself rather than an executed page: the Node
// Compiler's output is opaque and meant for a host evaluator,
// so this adapter is dev/introspection tooling — it lets a fiber route
// preview what a template compiles to.
type FiberViewsAdapter struct {
	Engine *Engine
}

// Render implements fiber.Views: Fiber's variadic layout args are accepted
// and ignored, since the compiled artifact carries no layout concept of its
// own (layout/extends directives are out of scope for this compiler).
func (v *FiberViewsAdapter) Render(w io.Writer, name string, _ interface{}, _ ...string) error {
	artifact, err := v.Engine.Compile(name)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, artifact)
	return err
}

// Load is an optional fiber.Views method to warm templates; the engine's
// own compile cache already amortizes repeated compiles, so this is a no-op.
func (v *FiberViewsAdapter) Load() error {
	return nil
}

// CompilerStatsHandler returns a fiber.Handler exposing usage/cache counters
// as plain text, for a dev/ops route to poll.
func (v *FiberViewsAdapter) CompilerStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/plain; charset=utf-8")
		_, err := c.WriteString("last_used_content_type: " + v.Engine.LastUsedContentType() + "\n")
		if err != nil {
			return err
		}
		for name, count := range v.Engine.UsageCounts() {
			if _, err := c.WriteString(fmt.Sprintf("%s: %d\n", name, count)); err != nil {
				return err
			}
		}
		return nil
	}
}

// RegisterRequestContext wires a per-request SafeFiberCtx into reg under the
// "_request" dispatch name, so a compiled artifact's $this->_request() calls
// (rewritten like any other bare call by the Expression Rewriter) can reach
// header/param/local/query without touching the rest of *fiber.Ctx.
// cache_bound is 0: request state must never be served from a stale cache
// entry across requests.
func RegisterRequestContext(reg *hostref.Registry, c *fiber.Ctx) error {
	ctx := NewSafeFiberCtx(c)
	return reg.Register("_request", func() *SafeFiberCtx { return ctx }, 0)
}
