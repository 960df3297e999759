package gitadapter_test

import (
	"net/http"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/go-test/deep"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

func TestParseLinkPages(t *testing.T) {
	cases := []struct {
		name       string
		link       string
		next, last *int
	}{
		{name: "none"},
		{
			name: "next_last",
			link: `<https://api.github.com/repositories/1/commits?page=2&per_page=30>; rel="next", <https://api.github.com/repositories/1/commits?page=9&per_page=30>; rel="last"`,
			next: swag.Int(2),
			last: swag.Int(9),
		},
		{
			name: "prev_first_only",
			link: `<https://api.github.com/x?page=1>; rel="prev", <https://api.github.com/x?page=1>; rel="first"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, last := gitadapter.ParseLinkPages(gitadapter.NewHeaderLookup(http.Header{"Link": {tc.link}}))
			if diff := deep.Equal([]*int{next, last}, []*int{tc.next, tc.last}); diff != nil {
				t.Fatal("pages diff:", diff)
			}
		})
	}
}

func TestParseGitLabPages(t *testing.T) {
	h := http.Header{}
	h.Set("X-Next-Page", "3")
	h.Set("X-Total-Pages", "7")
	next, last := gitadapter.ParseGitLabPages(gitadapter.NewHeaderLookup(h))
	if swag.IntValue(next) != 3 || swag.IntValue(last) != 7 {
		t.Fatalf("pages=%v,%v expected 3,7", next, last)
	}

	h.Set("X-Next-Page", "")
	next, _ = gitadapter.ParseGitLabPages(gitadapter.NewHeaderLookup(h))
	if next != nil {
		t.Fatalf("next=%d on last page", *next)
	}
}
