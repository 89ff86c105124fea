package sitemap

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html/charset"
)

// LocationTag is the sitemap element holding a page URL.
const LocationTag = "loc"

// Document is a parsed sitemap. Well-formed XML is held as an xmlquery tree;
// anything else is parsed with the HTML-tolerant goquery parser.
type Document struct {
	xml  *xmlquery.Node
	html *goquery.Document
}

// Parse builds a Document from a response body. The content type is only used
// as a charset hint; markup is parsed regardless of what it declares.
func Parse(body []byte, contentType string) (*Document, error) {
	if root, err := xmlquery.Parse(bytes.NewReader(body)); err == nil && hasElement(root) {
		return &Document{xml: root}, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return &Document{html: doc}, nil
}

// FindAll returns the text of every element named tag, matched
// case-insensitively at any depth, in document order. Namespaced elements
// such as image:loc do not match loc.
func (d *Document) FindAll(tag string) []string {
	if d == nil {
		return nil
	}
	if d.xml != nil {
		return findXML(d.xml, tag)
	}
	if d.html == nil {
		return nil
	}
	var out []string
	d.html.Find(strings.ToLower(tag)).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// Locations returns the text of every <loc> element.
func (d *Document) Locations() []string {
	return d.FindAll(LocationTag)
}

func findXML(root *xmlquery.Node, tag string) []string {
	var out []string
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode && child.Prefix == "" && strings.EqualFold(child.Data, tag) {
				out = append(out, strings.TrimSpace(child.InnerText()))
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

func hasElement(root *xmlquery.Node) bool {
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}
