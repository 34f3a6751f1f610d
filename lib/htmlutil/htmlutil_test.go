package htmlutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixture = `<html><body>
<div id="detail">
  <p>First
     paragraph</p>
  <p>Second <b>bold</b>	part</p>
  <span id="mail">someone@siirt.edu.tr<br/><i>secondary@example.com</i></span>
</div>
<ul id="links">
  <li><a href="/personel/1.html">  Dr.   Ayşe  </a></li>
  <li><a href="https://other.example.com/x.html">Other</a></li>
  <li><a>No href</a></li>
  <li><a href="http://[::1">Broken</a></li>
</ul>
</body></html>`

func TestTextNodes(t *testing.T) {
	doc, err := Parse(fixture)
	require.NoError(t, err)

	nodes := TextNodes(doc.Find("#detail p"))
	require.Equal(t, []string{"First      paragraph"}, nodes)

	all := TextNodes(doc.Find("#detail"))
	require.Equal(t, []string{
		"First      paragraph",
		"Second",
		"bold",
		"part",
		"someone@siirt.edu.tr",
		"secondary@example.com",
	}, all)

	require.Nil(t, TextNodes(doc.Find("#missing")))
}

func TestFirstText(t *testing.T) {
	doc, err := Parse(fixture)
	require.NoError(t, err)

	require.Equal(t, "someone@siirt.edu.tr", FirstText(doc.Find("#mail")))
	require.Equal(t, "", FirstText(doc.Find("#missing")))
}

func TestText(t *testing.T) {
	doc, err := Parse(fixture)
	require.NoError(t, err)
	require.Equal(t, "Second bold part", Text(doc.Find("#detail p").Eq(1)))
	require.Equal(t, "", Text(doc.Find("#missing")))
}

func TestGetAnchors(t *testing.T) {
	doc, err := Parse(fixture)
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), "https://bilgisayar.siirt.edu.tr/", doc.Find("#links a"))
	require.Equal(t, []Anchor{
		{Name: "Dr. Ayşe", Href: "https://bilgisayar.siirt.edu.tr/personel/1.html"},
		{Name: "Other", Href: "https://other.example.com/x.html"},
	}, anchors)
}

func TestResolveAndOrigin(t *testing.T) {
	link, err := Resolve("https://siirt.edu.tr/", "duyuru/123.html")
	require.NoError(t, err)
	require.Equal(t, "https://siirt.edu.tr/duyuru/123.html", link)

	link, err = Resolve("https://siirt.edu.tr/haber/", "/dosya/a.jpg")
	require.NoError(t, err)
	require.Equal(t, "https://siirt.edu.tr/dosya/a.jpg", link)

	origin, err := Origin("https://siirt.edu.tr/haber/1.html")
	require.NoError(t, err)
	require.Equal(t, "https://siirt.edu.tr", origin)
}

func TestDirectText(t *testing.T) {
	doc, err := Parse(fixture)
	require.NoError(t, err)

	require.Equal(t, "Second part", DirectText(doc.Find("#detail p").Eq(1)))
	require.Equal(t, "", DirectText(doc.Find("#missing")))
}
