// Package linkcheck verifies that internal links in built HTML resolve to
// files in the output directory. External links are never fetched.
package linkcheck

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Broken describes an internal link whose target the build did not write.
type Broken struct {
	Page string // output-relative path of the page containing the link
	URL  string // the link as written
	Tag  string // element the link came from
}

func (b Broken) String() string {
	return fmt.Sprintf("%s: <%s> %s", b.Page, b.Tag, b.URL)
}

// Verify walks every .html file under root and checks that internal links
// point at files that exist. Directory links resolve to their index.html.
// Links with a scheme or host, and fragment-only links, are skipped.
func Verify(ctx context.Context, root string) ([]Broken, error) {
	var broken []Broken
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page := filepath.ToSlash(rel)

		targets, err := extractTargets(p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", page, err)
		}
		for _, t := range targets {
			file, checkable := resolve(page, t.url)
			if !checkable {
				continue
			}
			if !exists(root, file) {
				broken = append(broken, Broken{Page: page, URL: t.url, Tag: t.tag})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return broken, nil
}

type target struct {
	url string
	tag string
}

// extractTargets collects link-bearing attributes from one HTML file.
func extractTargets(htmlPath string) ([]target, error) {
	f, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	var out []target
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if v := getAttr(n, "href"); v != "" {
					out = append(out, target{url: v, tag: n.Data})
				}
			case "img", "script", "video", "audio", "source":
				if v := getAttr(n, "src"); v != "" {
					out = append(out, target{url: v, tag: n.Data})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// resolve maps a link found on page (output-relative, slash-separated) to
// the output-relative file it names. checkable is false for external links,
// unparseable URLs and fragment-only references.
func resolve(page, raw string) (file string, checkable bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	if strings.HasPrefix(u.Path, "/") {
		return strings.TrimPrefix(path.Clean(u.Path), "/"), true
	}
	return path.Clean(path.Join(path.Dir(page), u.Path)), true
}

// exists reports whether rel names a file under root. A directory counts
// when it holds an index.html. Paths escaping root never count.
func exists(root, rel string) bool {
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return false
	}
	if info.IsDir() {
		info, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel), "index.html"))
		return err == nil && !info.IsDir()
	}
	return true
}
