package gitadapter

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/go-openapi/swag"
)

var linkRe = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="([^"]+)"`)

// ParseLinkPages returns the next and last page numbers of an RFC 5988 Link header.
func ParseLinkPages(lookup HeaderLookup) (next, last *int) {
	for _, m := range linkRe.FindAllStringSubmatch(lookup("Link"), -1) {
		u, err := url.Parse(m[1])
		if err != nil {
			continue
		}
		page, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil {
			continue
		}
		switch m[2] {
		case "next":
			next = swag.Int(page)
		case "last":
			last = swag.Int(page)
		}
	}
	return next, last
}

// ParseGitLabPages returns the next and last page numbers from the x-next-page and
// x-total-pages headers.
func ParseGitLabPages(lookup HeaderLookup) (next, last *int) {
	return pageHeader(lookup, "X-Next-Page"), pageHeader(lookup, "X-Total-Pages")
}

func pageHeader(lookup HeaderLookup, name string) *int {
	n, err := strconv.Atoi(lookup(name))
	if err != nil || n <= 0 {
		return nil
	}
	return swag.Int(n)
}

// PageQuery returns the page and per_page query of a listing, defaults omitted.
func PageQuery(page, perPage int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	return q
}
