// Package ast models the node tree handed to the Node Compiler.
//
// The tree itself is produced by an external collaborator (golang.org/x/net/html
// for HTML-flavored sources, github.com/beevik/etree for XML-flavored ones) and
// is treated as a black box per the compiler's contract: this package only
// defines the shape the compiler walks and the adapter that fills it in.
package ast

// Kind distinguishes the three node variants. The AST is a closed sum, so the
// walker in engine/compiler switches on Kind explicitly instead of relying on
// interface dispatch.
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindComment
)

// ContentType selects which external producer builds the tree.
type ContentType int

const (
	ContentHTML ContentType = iota
	ContentXML
)

func (c ContentType) String() string {
	if c == ContentXML {
		return "xml"
	}
	return "html"
}

// TagInfo carries the element metadata the compiler needs to decide how to
// emit open/close tags.
type TagInfo struct {
	Name                    string
	IsSelfClosing           bool
	IsProcessingInstruction bool
	ShouldHaveClosingTag    bool
}

// RawAttribute is an unparsed attribute as it appeared in the source.
type RawAttribute struct {
	Key       string // part before ':', e.g. "s-bind"
	Type      string // part after ':', e.g. "class"; empty if no ':'
	Name      string // full original attribute name, e.g. "s-bind:class"
	Value     string // unparsed value
	Enclosure byte   // '"' or '\''
}

// HasType reports whether the attribute name carried a ":type" suffix.
func (a RawAttribute) HasType() bool { return a.Type != "" }

// noSibling marks a node with no following sibling.
const noSibling = -1

// Node is one arena slot. Children and siblings are addressed by index into
// the owning Tree, never by pointer, so the tree can be walked and re-walked
// without cyclic ownership.
type Node struct {
	Kind Kind

	// Element fields.
	Tag   TagInfo
	Attrs []RawAttribute

	// Text/Comment fields.
	Text string

	// Raw is the source-verbatim open-tag text, when the producer can supply
	// it. Used only for skip-scope passthrough; empty means the compiler
	// falls back to reconstructing the tag from Tag/Attrs.
	Raw string

	Parent      int
	Children    []int
	NextSibling int
}

// Tree is the arena-of-nodes the Node Compiler walks. Index 0 is never a real
// node; Roots lists the indices of the top-level nodes in source order.
type Tree struct {
	Nodes []Node
	Roots []int
}

// NewTree returns an empty tree ready for population by an AST producer.
func NewTree() *Tree {
	return &Tree{Nodes: make([]Node, 0, 16)}
}

// addNode appends a node and returns its index.
func (t *Tree) addNode(n Node) int {
	n.NextSibling = noSibling
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

// AddRoot appends a top-level node and links it as the previous root's sibling.
func (t *Tree) AddRoot(n Node) int {
	n.Parent = noSibling
	idx := t.addNode(n)
	if len(t.Roots) > 0 {
		t.Nodes[t.Roots[len(t.Roots)-1]].NextSibling = idx
	}
	t.Roots = append(t.Roots, idx)
	return idx
}

// AddChild appends a node as the last child of parent, linking it as the
// previous child's sibling.
func (t *Tree) AddChild(parent int, n Node) int {
	n.Parent = parent
	idx := t.addNode(n)
	siblings := t.Nodes[parent].Children
	if len(siblings) > 0 {
		t.Nodes[siblings[len(siblings)-1]].NextSibling = idx
	}
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	return idx
}

// Get returns the node at idx.
func (t *Tree) Get(idx int) *Node { return &t.Nodes[idx] }

// GetNextSibling returns the index of idx's next sibling, and whether one
// exists. The Node Compiler uses this to decide whether an if/elseif chain is
// terminated.
func (t *Tree) GetNextSibling(idx int) (int, bool) {
	next := t.Nodes[idx].NextSibling
	if next == noSibling {
		return 0, false
	}
	return next, true
}
