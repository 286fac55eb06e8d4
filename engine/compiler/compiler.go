// Package compiler implements the Node Compiler: a
// depth-first walk over an engine/ast.Tree that drives the Attribute
// Compiler, Interpolation Scanner, Expression Rewriter, and Translation
// Weaver to produce the final compiled artifact text.
package compiler

import (
	"fmt"
	"strings"

	"github.com/sfire-framework/sfire-template/engine/ast"
	"github.com/sfire-framework/sfire-template/engine/attrs"
	"github.com/sfire-framework/sfire-template/engine/i18n"
	"github.com/sfire-framework/sfire-template/engine/interpolate"
	"github.com/sfire-framework/sfire-template/engine/rewrite"
)

// transparentTag is the pseudo-element whose open/close never reach output.
const transparentTag = "s-tag"

const noScopeRoot = -1

// ErrMissingBindType is raised for an "s-bind" attribute with no ":type"
// suffix.
type ErrMissingBindType struct {
	Tag string
}

func (e *ErrMissingBindType) Error() string {
	return fmt.Sprintf("s-bind without a type on <%s>", e.Tag)
}

// directiveFrame is the per-node bookkeeping pushed in step 3 and popped in
// step 10 of the per-element walk.
type directiveFrame struct {
	nodeIdx  int
	controls []attrs.ControlFlow
}

// CompileContext threads the emission buffer, directive scope stack,
// translation scope, and skip scope explicitly through the walk instead of
// as module-level state.
type CompileContext struct {
	Output strings.Builder
	Weaver *i18n.Weaver

	skipRoot       int
	skipActive     bool
	directiveStack []directiveFrame
}

// NewCompileContext returns a fresh context with no active scopes.
func NewCompileContext() *CompileContext {
	return &CompileContext{
		Weaver:   i18n.NewWeaver(),
		skipRoot: noScopeRoot,
	}
}

// Compiler walks one Tree into compiled artifact text. TemplateDir/CacheDir
// are carried so a partial-include child compiler can share them without
// re-resolving configuration.
type Compiler struct {
	TemplateDir  string
	CacheDir     string
	SkipComments bool

	inheritedSkip bool
}

// NewCompiler constructs a root compiler.
func NewCompiler(templateDir, cacheDir string, skipComments bool) *Compiler {
	return &Compiler{TemplateDir: templateDir, CacheDir: cacheDir, SkipComments: skipComments}
}

// NewPartialCompiler returns a child compiler for a partial-include. It
// shares this compiler's directories but starts with a fresh directive stack
// and translation scope; inheritSkipRoot carries forward an active skip
// scope so a partial included inside s-skip still renders as literal text.
func (c *Compiler) NewPartialCompiler(inheritSkipRoot bool) *Compiler {
	return &Compiler{
		TemplateDir:   c.TemplateDir,
		CacheDir:      c.CacheDir,
		SkipComments:  c.SkipComments,
		inheritedSkip: inheritSkipRoot,
	}
}

// Compile walks tree depth-first, preserving source order, and returns the
// compiled artifact text.
func (c *Compiler) Compile(tree *ast.Tree) (string, error) {
	ctx := NewCompileContext()
	ctx.skipActive = c.inheritedSkip
	for _, rootIdx := range tree.Roots {
		if err := c.walkNode(tree, rootIdx, ctx); err != nil {
			return "", err
		}
	}
	return ctx.Output.String(), nil
}

func (c *Compiler) walkNode(tree *ast.Tree, idx int, ctx *CompileContext) error {
	node := tree.Get(idx)
	switch node.Kind {
	case ast.KindText:
		c.emitText(node.Text, ctx)
		return nil
	case ast.KindComment:
		if c.SkipComments && !ctx.skipActive {
			return nil
		}
		// The producer strips the comment delimiters; restore them so the
		// artifact round-trips. The body itself is treated as text.
		c.appendOutput("<!--", ctx)
		c.emitText(node.Text, ctx)
		c.appendOutput("-->", ctx)
		return nil
	default:
		return c.walkElement(tree, idx, ctx)
	}
}

// appendOutput routes s to the translation buffer (single-quote escaped) if
// a translation scope is open, otherwise to the normal output.
func (c *Compiler) appendOutput(s string, ctx *CompileContext) {
	if ctx.Weaver.IsOpen() {
		ctx.Weaver.Append(i18n.EscapeSingleQuote(s))
		return
	}
	ctx.Output.WriteString(s)
}

func escapeEmit(expr string) string {
	return fmt.Sprintf(`<?php echo htmlentities((string)(%s), ENT_QUOTES); ?>`, expr)
}

func rawEmit(expr string) string {
	return fmt.Sprintf(`<?php echo (%s); ?>`, expr)
}

func (c *Compiler) emitText(text string, ctx *CompileContext) {
	if ctx.skipActive {
		c.appendOutput(text, ctx)
		return
	}
	c.appendOutput(interpolate.Emit(text, escapeEmit, rawEmit), ctx)
}

func renderOpenTag(node *ast.Node, attrsText string) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(node.Tag.Name)
	b.WriteString(attrsText)
	if node.Tag.IsSelfClosing {
		b.WriteString(" />")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

func renderRawAttrs(raws []ast.RawAttribute) string {
	var b strings.Builder
	for _, a := range raws {
		fmt.Fprintf(&b, " %s=%c%s%c", a.Name, a.Enclosure, a.Value, a.Enclosure)
	}
	return b.String()
}

// emitRawElement is the skip-scope passthrough: the element's
// raw tag content is emitted verbatim and children recurse still under skip.
func (c *Compiler) emitRawElement(tree *ast.Tree, idx int, ctx *CompileContext) error {
	node := tree.Get(idx)
	openTag := node.Raw
	if openTag == "" {
		openTag = renderOpenTag(node, renderRawAttrs(node.Attrs))
	}
	c.appendOutput(openTag, ctx)
	for _, childIdx := range node.Children {
		if err := c.walkNode(tree, childIdx, ctx); err != nil {
			return err
		}
	}
	if node.Tag.ShouldHaveClosingTag {
		c.appendOutput(fmt.Sprintf("</%s>", node.Tag.Name), ctx)
	}
	return nil
}

// siblingContinuesChain reports whether idx's next element sibling carries
// s-elseif or s-else, meaning idx's if/elseif chain is not yet terminated.
// Whitespace text and comments between chain members do not break the chain;
// they end up inside the preceding branch's output.
func siblingContinuesChain(tree *ast.Tree, idx int) bool {
	for {
		nextIdx, ok := tree.GetNextSibling(idx)
		if !ok {
			return false
		}
		next := tree.Get(nextIdx)
		switch next.Kind {
		case ast.KindComment:
			idx = nextIdx
			continue
		case ast.KindText:
			if strings.TrimSpace(next.Text) != "" {
				return false
			}
			idx = nextIdx
			continue
		}
		for _, a := range next.Attrs {
			if a.Key == "s-elseif" || a.Key == "s-else" {
				return true
			}
		}
		return false
	}
}

func (c *Compiler) closeControls(tree *ast.Tree, idx int, controls []attrs.ControlFlow, ctx *CompileContext) {
	for i := len(controls) - 1; i >= 0; i-- {
		cf := controls[i]
		if attrs.IsChainMember(cf.Kind) && siblingContinuesChain(tree, idx) {
			continue
		}
		c.appendOutput(attrs.CloserFor(cf), ctx)
	}
}

func hasMissingBindType(node *ast.Node) bool {
	for _, a := range node.Attrs {
		if a.Key == "s-bind" && a.Type == "" {
			return true
		}
	}
	return false
}

func (c *Compiler) walkElement(tree *ast.Tree, idx int, ctx *CompileContext) error {
	node := tree.Get(idx)

	// Step 1: skip-scope passthrough.
	if ctx.skipActive && idx != ctx.skipRoot {
		return c.emitRawElement(tree, idx, ctx)
	}

	if hasMissingBindType(node) {
		return &ErrMissingBindType{Tag: node.Tag.Name}
	}

	comp := attrs.NewAttributeCompiler(node, ctx.Weaver.IsOpen())
	emittedAttrs, directives := comp.Compile()

	if directives.Skip && !ctx.skipActive {
		ctx.skipActive = true
		ctx.skipRoot = idx
	}

	// Step 3: stage control-flow opens.
	for _, cf := range directives.Controls {
		c.appendOutput(attrs.OpenerFor(cf), ctx)
	}
	ctx.directiveStack = append(ctx.directiveStack, directiveFrame{nodeIdx: idx, controls: directives.Controls})

	isTransparent := node.Tag.Name == transparentTag
	isTranslationRoot := false
	if directives.Translate {
		if err := ctx.Weaver.Open(node.Tag.Name, directives.TranslateKey, directives.TranslateParams); err != nil {
			return err
		}
		isTranslationRoot = true
	}

	// Step 4: open tag. The translation root's own open tag bypasses the
	// buffer even though the weaver is now open.
	if !isTransparent {
		openTag := renderOpenTag(node, emittedAttrs)
		if isTranslationRoot {
			ctx.Output.WriteString(openTag)
		} else {
			c.appendOutput(openTag, ctx)
		}
	}

	// Step 5: partial-include.
	if directives.HasPartial {
		c.appendOutput(fmt.Sprintf(`<?= $this->partial(%s) ?>`, rewrite.Rewrite(directives.PartialExpr)), ctx)
	}

	// Step 6: recurse into children.
	for _, childIdx := range node.Children {
		if err := c.walkNode(tree, childIdx, ctx); err != nil {
			return err
		}
	}

	// Step 7: close translation scope.
	if isTranslationRoot {
		ctx.Output.WriteString(ctx.Weaver.Close())
	}

	// Step 8: close tag.
	if node.Tag.ShouldHaveClosingTag && !isTransparent {
		c.appendOutput(fmt.Sprintf("</%s>", node.Tag.Name), ctx)
	}

	// Step 9: clear skip scope.
	if directives.Skip && ctx.skipRoot == idx {
		ctx.skipActive = false
		ctx.skipRoot = noScopeRoot
	}

	// Step 10: pop and close every directive scope entry pushed in step 3.
	ctx.directiveStack = ctx.directiveStack[:len(ctx.directiveStack)-1]
	c.closeControls(tree, idx, directives.Controls, ctx)

	return nil
}
