package explorer

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/contractdiff/internal/diff"
	"github.com/nao1215/contractdiff/internal/model"
)

// HTML markers used by the explorer pages.
const (
	addressTagClass = "address-tag"
	pagerID         = "ContentPlaceHolder1_PagingPanel"
	editorID        = "editor"
)

// pagerPattern matches the "Page 3 of 120" text of the pager.
var pagerPattern = regexp.MustCompile(`(?i)page\s+(\d+)\s+of\s+(\d+)`)

// fileTitlePattern matches the "File 2 of 5 : Ownable.sol" caption the
// explorer puts above each editor of a multi-file contract.
var fileTitlePattern = regexp.MustCompile(`File\s+\d+\s+of\s+\d+\s*:\s*(\S+)`)

// editorIDPattern matches single-file (#editor) and multi-file
// (#editor1, #editor2, ...) source editors.
var editorIDPattern = regexp.MustCompile(`^editor\d*$`)

// listPage is what a page of the verified-contract list yields.
type listPage struct {
	// Addresses are the contracts listed on the page.
	Addresses []model.Address

	// Current is the page number the pager reports, 0 if there is no pager.
	Current int

	// Total is the number of pages the pager reports, 0 if there is no pager.
	Total int
}

// parseListPage extracts the address tags and the pager of a list page.
//
// Design decision: We use golang.org/x/net/html rather than regular
// expressions over raw HTML because explorer markup is large, changes
// often, and is not always well formed.
func parseListPage(r io.Reader) (*listPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	page := &listPage{Addresses: addressTags(doc)}
	if pager := findByID(doc, pagerID); pager != nil {
		if m := pagerPattern.FindStringSubmatch(collapseSpace(textContent(pager))); m != nil {
			page.Current, _ = strconv.Atoi(m[1]) //nolint:errcheck // pattern guarantees digits
			page.Total, _ = strconv.Atoi(m[2])   //nolint:errcheck // pattern guarantees digits
		}
	}
	return page, nil
}

// parseAddressTags extracts the addresses of every .address-tag element.
func parseAddressTags(r io.Reader) ([]model.Address, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return addressTags(doc), nil
}

// addressTags walks the document and returns the unique, valid addresses
// held by .address-tag elements, in document order. Tags that do not hold
// a valid address (truncated display names, labels) are ignored.
func addressTags(doc *html.Node) []model.Address {
	var out []model.Address
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, addressTagClass) {
			if addr, err := model.ParseAddress(textContent(n)); err == nil {
				out = append(out, addr)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return model.UniqueAddresses(out)
}

// parseSource extracts the contract source from a contract page.
// Multi-file contracts are flattened with diff.Flatten.
func parseSource(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var files []diff.SourceFile
	var caption string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if m := fileTitlePattern.FindStringSubmatch(n.Data); m != nil {
				caption = m[1]
			}
		case html.ElementNode:
			if id := attr(n, "id"); editorIDPattern.MatchString(id) {
				name := ""
				if id != editorID {
					name = caption
					if name == "" {
						name = id
					}
				}
				files = append(files, diff.SourceFile{Name: name, Content: textContent(n)})
				caption = ""
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(files) == 0 {
		return "", ErrSourceNotFound
	}
	return diff.Flatten(files), nil
}

// findByID returns the first element with the given id, or nil.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the element carries the given CSS class.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent returns the concatenated text of n and its descendants.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace replaces runs of whitespace with a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
