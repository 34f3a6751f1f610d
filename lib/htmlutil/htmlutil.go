package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"unifeed-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("unifeed.lib.htmlutil")

// Parse loads an html document so selectors can be run on it.
func Parse(contents string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(contents))
}

// Text returns the cleaned text content of the selection, "" if it is empty.
func Text(sel *goquery.Selection) string {
	return textutil.Clean(sel.Text())
}

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// TextNodes returns every non-blank text node under the first node of the selection
// in document order, each trimmed with inner line breaks and tabs turned into spaces.
func TextNodes(sel *goquery.Selection) []string {
	if sel.Length() == 0 {
		return nil
	}
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			text = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(text)
			if text != "" {
				out = append(out, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel.Get(0))
	return out
}

// FirstText returns the trimmed first direct text child of the first node in the
// selection, the equivalent of the xpath `.../text()[1]`.
func FirstText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	for c := sel.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return strings.TrimSpace(c.Data)
		}
	}
	return ""
}

// Resolve makes href absolute against base.
func Resolve(base, href string) (string, error) {
	baseUrl, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := baseUrl.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

// Origin returns scheme://host of a url.
func Origin(link string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors reads the href of every node in the selection and resolves it against base.
// Nodes without an href or with an unparseable one are skipped.
func GetAnchors(ctx context.Context, base string, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		if strings.TrimSpace(href) == "" {
			continue
		}

		link, err := Resolve(base, href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}

		name := textutil.Clean(GetText(n))
		anchors = append(anchors, Anchor{
			Name: name,
			Href: link,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", link),
		))
	}

	return anchors
}

// DirectText joins the direct text children of the first node in the selection,
// skipping text nested in child elements.
func DirectText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var parts []string
	for c := sel.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			parts = append(parts, c.Data)
		}
	}
	return textutil.Clean(strings.Join(parts, " "))
}
