// Package inject stamps the cart bootstrap script into every mirrored
// page. The script tag is versioned; re-running the injector upgrades
// stale tags in place and leaves current ones untouched, so the pass
// is safe to repeat over an already-injected clone.
package inject

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
	"golang.org/x/mod/semver"
)

// ScriptName is the bootstrap file referenced from every page. It
// renders the cart view from the cart endpoints and wires quantity
// controls to them.
const ScriptName = "cart-bootstrap.js"

// ScriptVersion is the bootstrap version stamped on injected tags.
// Bump it to make the next injector run refresh every page.
const ScriptVersion = "v1.2.0"

const markerAttr = "data-cart-version"

// Injector walks a mirrored site and injects the bootstrap tag.
type Injector struct {
	fs      afero.Fs
	version string
}

// New creates an Injector over the clone's filesystem.
func New(fs afero.Fs) *Injector {
	return &Injector{fs: fs, version: ScriptVersion}
}

// Run injects every HTML page under the clone root and returns how
// many files changed.
func (i *Injector) Run() (int, error) {
	changed := 0
	err := afero.Walk(i.fs, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(p, ".html") {
			return err
		}
		did, err := i.InjectFile(p)
		if err != nil {
			return fmt.Errorf("injecting %s: %w", p, err)
		}
		if did {
			changed++
		}
		return nil
	})
	return changed, err
}

// InjectFile injects one page, reporting whether the file was
// modified.
func (i *Injector) InjectFile(p string) (bool, error) {
	page, err := afero.ReadFile(i.fs, p)
	if err != nil {
		return false, err
	}

	out, changed, err := Inject(page, ScriptPrefix(p), i.version)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	return true, afero.WriteFile(i.fs, p, out, 0o644)
}

// Inject adds or upgrades the bootstrap tag in one document. prefix is
// the relative path from the page to the site root. The result is
// stable: injecting the output again changes nothing.
func Inject(page []byte, prefix, version string) ([]byte, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, false, err
	}

	src := prefix + ScriptName
	existing := doc.Find("script[" + markerAttr + "]").First()
	if existing.Length() > 0 {
		current, _ := existing.Attr(markerAttr)
		curSrc, _ := existing.Attr("src")
		if semver.Compare(current, version) >= 0 && curSrc == src {
			return page, false, nil
		}
		existing.SetAttr(markerAttr, version)
		existing.SetAttr("src", src)
	} else {
		tag := fmt.Sprintf(`<script src=%q %s=%q defer></script>`, src, markerAttr, version)
		body := doc.Find("body").First()
		if body.Length() == 0 {
			return nil, false, fmt.Errorf("page has no body element")
		}
		body.AppendHtml(tag)
	}

	html, err := doc.Html()
	if err != nil {
		return nil, false, err
	}
	return []byte(html), true, nil
}

// ScriptPrefix returns the relative path from a page file to the site
// root, e.g. "products/x/index.html" resolves to "../../".
func ScriptPrefix(p string) string {
	dir := path.Dir(path.Clean(p))
	if dir == "." || dir == "/" {
		return "./"
	}
	depth := strings.Count(strings.Trim(dir, "/"), "/") + 1
	return strings.Repeat("../", depth)
}
