// Package dom holds the document the SDK tracks: an HTML tree with stable element ids and
// structural-change notifications.
//
// A Document is not safe for concurrent use. The viewability tracker owns it and only
// touches it from its event loop.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeID identifies an element for as long as it stays in the document.
type NodeID int64

// MutationRecord describes one structural change below Target.
type MutationRecord struct {
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

// MutationCallback receives the records produced by a single document operation.
type MutationCallback func(records []MutationRecord)

type Document struct {
	root      *html.Node
	body      *html.Node
	ids       map[*html.Node]NodeID
	nodes     map[NodeID]*html.Node
	next      NodeID
	observers []MutationCallback
}

// NewDocument returns an empty page.
func NewDocument() *Document {
	doc, _ := ParseDocument(strings.NewReader("<html><head></head><body></body></html>"))
	return doc
}

// ParseDocument parses a full page. Every element found gets an id, but no mutation
// records are produced: the content is the initial document.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("failed to parse document: %v", err)}
	}

	d := &Document{
		root:  root,
		ids:   make(map[*html.Node]NodeID),
		nodes: make(map[NodeID]*html.Node),
	}
	d.body = findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	if d.body == nil {
		return nil, &errortypes.BadInput{Message: "document has no body"}
	}
	d.assignIDs(root)
	return d, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the id of the body element.
func (d *Document) Body() NodeID {
	return d.ids[d.body]
}

// Node resolves an id to its element.
func (d *Document) Node(id NodeID) (*html.Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// ID returns the id of an element which is still in the document.
func (d *Document) ID(n *html.Node) (NodeID, bool) {
	id, ok := d.ids[n]
	return id, ok
}

// Observe registers a structural-change observer for the whole document subtree.
func (d *Document) Observe(callback MutationCallback) {
	d.observers = append(d.observers, callback)
}

// AppendHTML parses fragment in the context of the parent element and appends every
// top-level node to it. It returns the ids of the inserted top-level elements.
func (d *Document) AppendHTML(parent NodeID, fragment string) ([]NodeID, error) {
	parentNode, ok := d.nodes[parent]
	if !ok {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("unknown parent node %d", parent)}
	}

	context := &html.Node{
		Type:      html.ElementNode,
		Data:      parentNode.Data,
		DataAtom:  parentNode.DataAtom,
		Namespace: parentNode.Namespace,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("failed to parse fragment: %v", err)}
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	ids := make([]NodeID, 0, len(nodes))
	for _, n := range nodes {
		parentNode.AppendChild(n)
		d.assignIDs(n)
		if id, ok := d.ids[n]; ok {
			ids = append(ids, id)
		}
	}

	d.notify([]MutationRecord{{Target: parentNode, Added: nodes}})
	return ids, nil
}

// Remove detaches the element and its subtree. Observers see the removed node before
// its ids are released.
func (d *Document) Remove(id NodeID) error {
	n, ok := d.nodes[id]
	if !ok {
		return &errortypes.BadInput{Message: fmt.Sprintf("unknown node %d", id)}
	}
	if n == d.body || n.Parent == nil || n.Parent == d.root {
		return &errortypes.BadInput{Message: fmt.Sprintf("node %d cannot be removed", id)}
	}

	parent := n.Parent
	parent.RemoveChild(n)
	d.notify([]MutationRecord{{Target: parent, Removed: []*html.Node{n}}})
	d.releaseIDs(n)
	return nil
}

// Render serializes the element and its subtree.
func (d *Document) Render(id NodeID) (string, error) {
	n, ok := d.nodes[id]
	if !ok {
		return "", &errortypes.BadInput{Message: fmt.Sprintf("unknown node %d", id)}
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (d *Document) notify(records []MutationRecord) {
	for _, observer := range d.observers {
		observer(records)
	}
}

func (d *Document) assignIDs(n *html.Node) {
	walk(n, func(c *html.Node) {
		if c.Type != html.ElementNode {
			return
		}
		if _, ok := d.ids[c]; ok {
			return
		}
		d.next++
		d.ids[c] = d.next
		d.nodes[d.next] = c
	})
}

func (d *Document) releaseIDs(n *html.Node) {
	walk(n, func(c *html.Node) {
		if id, ok := d.ids[c]; ok {
			delete(d.ids, c)
			delete(d.nodes, id)
		}
	})
}
