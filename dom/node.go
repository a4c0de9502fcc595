package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether the class attribute of n contains class.
func HasClass(n *html.Node, class string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	classes, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class to n. Adding a class which is already present is a no-op.
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	classes, _ := Attr(n, "class")
	SetAttr(n, "class", strings.TrimSpace(classes+" "+class))
}

// RemoveClass removes every occurrence of class from n.
func RemoveClass(n *html.Node, class string) {
	classes, ok := Attr(n, "class")
	if !ok {
		return
	}
	fields := strings.Fields(classes)
	kept := fields[:0]
	for _, c := range fields {
		if c != class {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// FindAll returns the descendants of root, in document order, for which match is true.
// root itself is never included.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) {
			if match(n) {
				found = append(found, n)
			}
		})
	}
	return found
}

// Contains reports whether n is ancestor or one of its descendants.
func Contains(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}
