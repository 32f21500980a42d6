package provider

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/frederic-klein/lilyenv/internal/python"
)

// PyPy lists 64-bit Linux PyPy builds scraped from the pypy.org download
// page.
type PyPy struct {
	indexURL    string
	downloadURL string
	client      *http.Client
}

// NewPyPy creates a provider parsing the HTML index at indexURL and keeping
// only links into downloadURL.
func NewPyPy(indexURL, downloadURL string) *PyPy {
	return &PyPy{
		indexURL:    indexURL,
		downloadURL: downloadURL,
		client:      &http.Client{},
	}
}

// List returns the available PyPy releases. Malformed download URLs are
// skipped and reported in the second return value. The final error is set
// only on transport or parse failures of the page itself.
func (p *PyPy) List() ([]python.Release, []error, error) {
	req, err := http.NewRequest(http.MethodGet, p.indexURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching download page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetching download page: HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing download page: %w", err)
	}

	var releases []python.Release
	var skipped []error
	for _, href := range downloadLinks(doc) {
		if !strings.HasPrefix(href, p.downloadURL) {
			continue
		}
		if !strings.Contains(href, "linux64") {
			continue
		}
		name, tag, version, err := python.ParsePyPyURL(href, p.downloadURL)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		releases = append(releases, python.Release{
			Name:       name,
			URL:        href,
			Version:    version,
			ReleaseTag: tag,
		})
	}
	return releases, skipped, nil
}

// downloadLinks collects the href of every anchor nested as
// table > tbody > tr > td > p > a, the structure of the download tables on
// the index page.
func downloadLinks(doc *html.Node) []string {
	var hrefs []string
	for _, table := range elementsByTag(doc, "table") {
		for _, tbody := range childElements(table, "tbody") {
			for _, tr := range childElements(tbody, "tr") {
				for _, td := range childElements(tr, "td") {
					for _, para := range childElements(td, "p") {
						for _, a := range childElements(para, "a") {
							if href, ok := attr(a, "href"); ok {
								hrefs = append(hrefs, href)
							}
						}
					}
				}
			}
		}
	}
	return hrefs
}

// elementsByTag returns all elements with the given tag anywhere below n.
func elementsByTag(n *html.Node, tag string) []*html.Node {
	var found []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			found = append(found, c)
		}
		found = append(found, elementsByTag(c, tag)...)
	}
	return found
}

// childElements returns the direct children of n with the given tag.
func childElements(n *html.Node, tag string) []*html.Node {
	var found []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			found = append(found, c)
		}
	}
	return found
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
