package linkcheck

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func TestVerifyCleanSite(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<html><body>
			<a href="/about/">About</a>
			<a href="docs/intro/">Intro</a>
			<link rel="stylesheet" href="/assets/site-abc.css">
			<script src="/assets/index-def.js"></script>
			<a href="https://example.com/missing">external</a>
			<a href="#section">anchor</a>
			<a href="mailto:docs@example.com">mail</a>
		</body></html>`,
		"about/index.html":      `<html><body><a href="../">Home</a></body></html>`,
		"docs/intro/index.html": `<html><body><img src="/logo.png"></body></html>`,
		"assets/site-abc.css":   "body{}",
		"assets/index-def.js":   "export {}",
		"logo.png":              "png",
	})

	broken, err := Verify(t.Context(), root)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(broken) != 0 {
		t.Fatalf("expected no broken links, got %v", broken)
	}
}

func TestVerifyReportsMissingTargets(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<html><body>
			<a href="/gone/">gone page</a>
			<img src="missing.png">
		</body></html>`,
	})

	broken, err := Verify(t.Context(), root)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(broken) != 2 {
		t.Fatalf("expected 2 broken links, got %d: %v", len(broken), broken)
	}
	for _, b := range broken {
		if b.Page != "index.html" {
			t.Errorf("broken link attributed to %q, want index.html", b.Page)
		}
	}
}

func TestVerifyDirectoryNeedsIndex(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html":     `<html><body><a href="/docs/">docs</a></body></html>`,
		"docs/notes.txt": "no index here",
	})

	broken, err := Verify(t.Context(), root)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(broken) != 1 || broken[0].URL != "/docs/" {
		t.Fatalf("expected /docs/ to be broken, got %v", broken)
	}
}

func TestVerifyRejectsEscapingPaths(t *testing.T) {
	files := map[string]string{
		"index.html": `<html><body><a href="../secret.txt">up</a></body></html>`,
	}
	root := writeSite(t, files)
	// The file exists outside the output root; the link must still fail.
	if err := os.WriteFile(filepath.Join(filepath.Dir(root), "secret.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	broken, err := Verify(t.Context(), root)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(broken) != 1 {
		t.Fatalf("expected escaping link to be broken, got %v", broken)
	}
}

func TestResolveRelativeToPage(t *testing.T) {
	got, ok := resolve("docs/intro/index.html", "../setup/")
	if !ok || got != "docs/setup" {
		t.Fatalf("resolve = %q, %v; want docs/setup, true", got, ok)
	}
	if _, ok := resolve("index.html", "?query=only"); ok {
		t.Fatal("query-only link should not be checkable")
	}
	if _, ok := resolve("index.html", "tel:+4712345678"); ok {
		t.Fatal("tel link should not be checkable")
	}
}
