// Package htmlutil provides small text helpers over parsed HTML nodes,
// shared by the diary and profile parsers.
package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetText collects the concatenated text content under a node.
func GetText(node *html.Node) string {
	var buf bytes.Buffer
	getTextRecursive(node, &buf)
	return buf.String()
}

func getTextRecursive(node *html.Node, buf *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buf.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buf)
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CollapseText trims a scraped string, drops non-printable runes, and
// collapses runs of inner whitespace to a single space.
func CollapseText(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case unicode.IsSpace(c):
			b.WriteRune(' ')
		case unicode.IsPrint(c):
			b.WriteRune(c)
		}
	}
	out := strings.TrimSpace(b.String())
	return innerWhitespace.ReplaceAllString(out, " ")
}
