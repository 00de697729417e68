package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// StoreResult is one product found on the store search page.
type StoreResult struct {
	Title        string
	ProductURL   string
	ImageURL     string // Square box art shown in the result tile
	MainImageURL string // Hero image advertised by the tile, if any
}

// mainImageAttrs are anchor attributes that sometimes carry the hero image.
var mainImageAttrs = []string{"data-image", "data-src", "data-main-image", "data-hero-image"}

// SearchStore fetches the store search page for title and parses product
// tiles from it. searchURL must contain one %s for the escaped title.
func (c *Client) SearchStore(ctx context.Context, searchURL, title string) ([]StoreResult, error) {
	pageURL := fmt.Sprintf(searchURL, url.QueryEscape(title))
	body, err := c.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseStoreResults(body, pageURL)
}

// ProductImage fetches a product page and returns its hero image URL, or ""
// when the page advertises none.
func (c *Client) ProductImage(ctx context.Context, productURL string) (string, error) {
	body, err := c.Get(ctx, productURL, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()
	return parseProductImage(body, productURL)
}

var imageWidthRe = regexp.MustCompile(`w_(\d+)`)

// parseProductImage prefers the og:image meta tag and otherwise picks the
// widest CDN rendition (w_NNN above 100) among the page's images.
func parseProductImage(r io.Reader, pageURL string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var ogImage, best string
	bestWidth := 100
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				if ogImage == "" && attr(n, "property") == "og:image" {
					ogImage = attr(n, "content")
				}
			case "img":
				src := attr(n, "src")
				if src == "" {
					src = attr(n, "data-src")
				}
				if m := imageWidthRe.FindStringSubmatch(src); m != nil {
					if w, err := strconv.Atoi(m[1]); err == nil && w > bestWidth {
						bestWidth = w
						best = src
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	found := ogImage
	if found == "" {
		found = best
	}
	if found == "" {
		return "", nil
	}
	return resolveURL(pageURL, found)
}

// parseStoreResults extracts product tiles: anchors linking to
// /store/products/ with their title text and first image.
func parseStoreResults(r io.Reader, pageURL string) ([]StoreResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var results []StoreResult
	seen := map[string]struct{}{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if res, ok := parseProductAnchor(n, pageURL); ok {
				if _, exists := seen[res.ProductURL]; !exists {
					seen[res.ProductURL] = struct{}{}
					results = append(results, res)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return results, nil
}

func parseProductAnchor(a *html.Node, pageURL string) (StoreResult, bool) {
	href := attr(a, "href")
	if !strings.Contains(href, "/store/products/") {
		return StoreResult{}, false
	}
	productURL, err := resolveURL(pageURL, href)
	if err != nil {
		return StoreResult{}, false
	}

	title := ""
	if t := findTitleNode(a); t != nil {
		title = strings.TrimSpace(textContent(t))
	}
	if title == "" {
		title = strings.TrimSpace(attr(a, "aria-label"))
	}
	if title == "" {
		title = strings.TrimSpace(attr(a, "title"))
	}
	if title == "" {
		title = strings.Join(strings.Fields(textContent(a)), " ")
	}

	res := StoreResult{Title: title, ProductURL: productURL}
	if img := findElement(a, "img"); img != nil {
		src := attr(img, "src")
		if src == "" {
			src = attr(img, "data-src")
		}
		if src != "" {
			if u, err := resolveURL(pageURL, src); err == nil {
				res.ImageURL = u
			}
		}
	}
	for _, name := range mainImageAttrs {
		v := attr(a, name)
		if v == "" {
			continue
		}
		if u, err := resolveURL(pageURL, v); err == nil {
			res.MainImageURL = u
			break
		}
	}
	return res, true
}

// findTitleNode returns the first heading or element whose class mentions
// "title" below n.
func findTitleNode(n *html.Node) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		switch child.Data {
		case "h2", "h3", "h4", "h5":
			return child
		}
		if strings.Contains(strings.ToLower(attr(child, "class")), "title") {
			return child
		}
		if found := findTitleNode(child); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, tag string) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == tag {
			return child
		}
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	relURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(relURL).String(), nil
}

// textContent returns all text content within a node.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(textContent(child))
	}
	return sb.String()
}
