package ast

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// voidElements are HTML elements that never carry a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parse implements the AST-producer contract: parse(source, content_type) -> tree.
// content_type == ContentHTML delegates to golang.org/x/net/html; ContentXML
// delegates to github.com/beevik/etree. Both are external, black-box DOM
// producers — this function only adapts their output into the shared Tree shape.
func Parse(source string, contentType ContentType) (*Tree, error) {
	switch contentType {
	case ContentXML:
		return parseXML(source)
	default:
		return parseHTML(source)
	}
}

func splitAttrName(name string) (key, typ string) {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return name, ""
}

func toRawAttr(name, value string, enclosure byte) RawAttribute {
	key, typ := splitAttrName(name)
	return RawAttribute{Key: key, Type: typ, Name: name, Value: value, Enclosure: enclosure}
}

func parseHTML(source string) (*Tree, error) {
	tree := NewTree()
	z := html.NewTokenizer(strings.NewReader(source))
	stack := []int{}

	pushChild := func(n Node) int {
		if len(stack) == 0 {
			return tree.AddRoot(n)
		}
		return tree.AddChild(stack[len(stack)-1], n)
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return tree, nil
			}
			return tree, fmt.Errorf("html tokenize error: %w", z.Err())
		case html.TextToken:
			text := string(z.Text())
			if text == "" {
				continue
			}
			pushChild(Node{Kind: KindText, Text: text})
		case html.CommentToken:
			tok := z.Token()
			pushChild(Node{Kind: KindComment, Text: tok.Data})
		case html.DoctypeToken:
			// Doctype is emitted verbatim as text; it carries no directive surface.
			pushChild(Node{Kind: KindText, Text: "<!DOCTYPE " + z.Token().Data + ">"})
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			attrs := make([]RawAttribute, 0, len(tok.Attr))
			for _, a := range tok.Attr {
				attrs = append(attrs, toRawAttr(a.Key, a.Val, '"'))
			}
			selfClosing := tt == html.SelfClosingTagToken || voidElements[tok.Data]
			n := Node{
				Kind: KindElement,
				Tag: TagInfo{
					Name:                    tok.Data,
					IsSelfClosing:           selfClosing,
					IsProcessingInstruction: false,
					ShouldHaveClosingTag:    !selfClosing,
				},
				Attrs: attrs,
				Raw:   raw,
			}
			idx := pushChild(n)
			if !selfClosing {
				stack = append(stack, idx)
			}
		case html.EndTagToken:
			tok := z.Token()
			for i := len(stack) - 1; i >= 0; i-- {
				if tree.Get(stack[i]).Tag.Name == tok.Data {
					stack = stack[:i]
					break
				}
			}
		}
	}
}

func parseXML(source string) (*Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(source); err != nil {
		return nil, fmt.Errorf("xml parse error: %w", err)
	}
	tree := NewTree()
	var walk func(parent int, isRoot bool, tok etree.Token)
	walk = func(parent int, isRoot bool, tok etree.Token) {
		switch v := tok.(type) {
		case *etree.Element:
			attrs := make([]RawAttribute, 0, len(v.Attr))
			for _, a := range v.Attr {
				name := a.Key
				if a.Space != "" {
					name = a.Space + ":" + a.Key
				}
				attrs = append(attrs, toRawAttr(name, a.Value, '"'))
			}
			n := Node{
				Kind: KindElement,
				Tag: TagInfo{
					Name: v.FullTag(),
					// etree (backed by encoding/xml) does not preserve whether
					// the source spelled an empty element as "<a/>" or
					// "<a></a>" — both parse identically. Always closing
					// (never self-closing) keeps every opened tag's close
					// emitted regardless of child count, which is always
					// valid XML and avoids silently dropping a close tag for
					// a legitimately empty element (e.g. an "s-if" target).
					IsSelfClosing:           false,
					IsProcessingInstruction: false,
					ShouldHaveClosingTag:    true,
				},
				Attrs: attrs,
			}
			var idx int
			if isRoot {
				idx = tree.AddRoot(n)
			} else {
				idx = tree.AddChild(parent, n)
			}
			for _, child := range v.Child {
				walk(idx, false, child)
			}
		case *etree.CharData:
			if v.Data == "" {
				return
			}
			n := Node{Kind: KindText, Text: v.Data}
			if isRoot {
				tree.AddRoot(n)
			} else {
				tree.AddChild(parent, n)
			}
		case *etree.Comment:
			n := Node{Kind: KindComment, Text: v.Data}
			if isRoot {
				tree.AddRoot(n)
			} else {
				tree.AddChild(parent, n)
			}
		case *etree.ProcInst:
			n := Node{
				Kind: KindElement,
				Tag: TagInfo{
					Name:                    v.Target,
					IsSelfClosing:           true,
					IsProcessingInstruction: true,
					ShouldHaveClosingTag:    false,
				},
				Text: v.Inst,
			}
			if isRoot {
				tree.AddRoot(n)
			} else {
				tree.AddChild(parent, n)
			}
		}
	}
	for _, tok := range doc.Child {
		walk(0, true, tok)
	}
	return tree, nil
}
