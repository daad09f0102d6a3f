package htmlutil

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)
var anyWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsPrint(r):
			return r
		}
		return -1
	}, s)
}

// CleanText trims the text of a selection and collapses inner whitespace runs.
func CleanText(sel *goquery.Selection) string {
	text := removeNonPrintable(sel.Text())
	text = strings.TrimSpace(text)
	return anyWhitespace.ReplaceAllString(text, " ")
}

// ResolveHref parses href relative to base, an empty href returns nil.
func ResolveHref(base *url.URL, href string) (*url.URL, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, nil
	}
	link, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return link, nil
	}
	return base.ResolveReference(link), nil
}

var blockElements = map[string]struct{}{
	"br": {}, "p": {}, "div": {}, "li": {}, "tr": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// StripTags removes all markup from an html fragment, the text of each line or
// block element becomes its own line. Empty lines are dropped.
func StripTags(fragment string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return "", err
	}

	var buffer strings.Builder
	for _, n := range nodes {
		stripRecursive(n, &buffer)
	}

	var lines []string
	for _, line := range strings.Split(buffer.String(), "\n") {
		line = strings.TrimSpace(removeNonPrintable(line))
		line = innerWhitespace.ReplaceAllString(line, " ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func stripRecursive(node *html.Node, buffer *strings.Builder) {
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.ElementNode:
		if node.Data == "script" || node.Data == "style" {
			return
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		stripRecursive(child, buffer)
	}

	if node.Type == html.ElementNode {
		if _, ok := blockElements[node.Data]; ok {
			buffer.WriteByte('\n')
		}
	}
}
