package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/gitadapter/github"
)

const (
	headSha   = "1111111111111111111111111111111111111111"
	treeSha   = "2222222222222222222222222222222222222222"
	commitSha = "3333333333333333333333333333333333333333"
)

// fakeGitHub serves canned responses and records the requests it got.
type fakeGitHub struct {
	t        *testing.T
	mu       sync.Mutex
	requests []string
	bodies   map[string][]map[string]interface{}
	handlers map[string]http.HandlerFunc
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	f := &fakeGitHub{t: t, bodies: make(map[string][]map[string]interface{}), handlers: make(map[string]http.HandlerFunc)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeGitHub) handle(method, path string, h http.HandlerFunc) {
	f.handlers[method+" "+path] = h
}

func (f *fakeGitHub) json(method, path string, status int, v interface{}) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	})
}

func (f *fakeGitHub) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeGitHub) body(method, path string, i int) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[method+" "+path][i]
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.EscapedPath()
	f.mu.Lock()
	f.requests = append(f.requests, key)
	if r.Body != nil {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			f.bodies[key] = append(f.bodies[key], body)
		}
	}
	h, ok := f.handlers[key]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		return
	}
	h(w, r)
}

func newAdapter(t *testing.T, url, token string) *github.Adapter {
	t.Helper()
	a, err := github.New(context.Background(), gitadapter.Config{
		Type:  github.AdapterType,
		Owner: "octo",
		Repo:  "demo",
		Token: token,
		Host:  url,
	}, gitadapter.Params{
		Retry:       gitadapter.RetryParams{Attempts: 2, BaseDelay: time.Millisecond},
		Concurrency: 4,
		CacheSize:   16,
	})
	require.NoError(t, err)
	return a
}

func TestBaseURL(t *testing.T) {
	require.Equal(t, github.DefaultBaseURL, github.BaseURL(""))
	require.Equal(t, "https://ghe.example.com/api/v3", github.BaseURL("ghe.example.com"))
	require.Equal(t, "http://127.0.0.1:8080", github.BaseURL("http://127.0.0.1:8080/"))
}

func TestNew_RequiresRepository(t *testing.T) {
	_, err := github.New(context.Background(), gitadapter.Config{Owner: "octo"}, gitadapter.DefaultParams())
	require.ErrorIs(t, err, gitadapter.ErrInvalidConfig)
}

func TestCreateBlobs_Idempotent(t *testing.T) {
	f, srv := newFakeGitHub(t)
	var n int
	var mu sync.Mutex
	f.handle(http.MethodPost, "/repos/octo/demo/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		n++
		sha := fmt.Sprintf("%040d", n)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"sha":"%s"}`, sha)
	})
	a := newAdapter(t, srv.URL, "secret")
	ctx := context.Background()

	changes := []gitadapter.Change{
		{Type: gitadapter.ChangeCreate, Path: "a.txt", Content: "same"},
		{Type: gitadapter.ChangeDelete, Path: "gone.txt"},
		{Type: gitadapter.ChangeUpdate, Path: "b.txt", Content: "other"},
	}
	first, err := a.CreateBlobs(ctx, changes, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotContains(t, first, "gone.txt")

	second, err := a.CreateBlobs(ctx, []gitadapter.Change{{Type: gitadapter.ChangeCreate, Path: "copy.txt", Content: "same"}}, 2)
	require.NoError(t, err)
	require.Equal(t, first["a.txt"], second["copy.txt"])
	require.Equal(t, 2, f.count(http.MethodPost, "/repos/octo/demo/git/blobs"))
}

func TestPushPlumbing(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.json(http.MethodPost, "/repos/octo/demo/git/trees", http.StatusCreated, map[string]string{"sha": treeSha})
	f.json(http.MethodPost, "/repos/octo/demo/git/commits", http.StatusCreated, map[string]string{"sha": commitSha})
	f.json(http.MethodPatch, "/repos/octo/demo/git/refs/heads/main", http.StatusOK, map[string]interface{}{"ref": "refs/heads/main"})
	a := newAdapter(t, srv.URL, "")
	ctx := context.Background()

	tree, err := a.CreateTree(ctx, []gitadapter.Change{
		{Type: gitadapter.ChangeCreate, Path: "a.txt", BlobSha: "aaaa"},
		{Type: gitadapter.ChangeDelete, Path: "old.txt"},
	}, "base-tree")
	require.NoError(t, err)
	require.Equal(t, treeSha, tree)
	treeBody := f.body(http.MethodPost, "/repos/octo/demo/git/trees", 0)
	require.Equal(t, "base-tree", treeBody["base_tree"])
	entries := treeBody["tree"].([]interface{})
	require.Len(t, entries, 2)
	deleted := entries[1].(map[string]interface{})
	require.Contains(t, deleted, "sha")
	require.Nil(t, deleted["sha"])

	commit, err := a.CreateCommit(ctx, "msg", headSha, tree)
	require.NoError(t, err)
	require.Equal(t, commitSha, commit)
	require.Equal(t, []interface{}{headSha}, f.body(http.MethodPost, "/repos/octo/demo/git/commits", 0)["parents"])

	_, err = a.CreateCommit(ctx, "root", "not-a-sha", tree)
	require.NoError(t, err)
	require.NotContains(t, f.body(http.MethodPost, "/repos/octo/demo/git/commits", 1), "parents")

	require.NoError(t, a.UpdateRef(ctx, "main", commit, false))
	require.Equal(t, commitSha, f.body(http.MethodPatch, "/repos/octo/demo/git/refs/heads/main", 0)["sha"])
}

func TestUpdateRef_NonFastForward(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.json(http.MethodPatch, "/repos/octo/demo/git/refs/heads/main", http.StatusUnprocessableEntity,
		map[string]string{"message": "Update is not a fast forward"})
	a := newAdapter(t, srv.URL, "")

	err := a.UpdateRef(context.Background(), "refs/heads/main", commitSha, false)
	var nff *gitadapter.NonFastForwardError
	require.ErrorAs(t, err, &nff)
	require.ErrorIs(t, err, gitadapter.ErrNonFastForward)
	require.Equal(t, "Update is not a fast forward", nff.Body)
	require.Equal(t, 1, f.count(http.MethodPatch, "/repos/octo/demo/git/refs/heads/main"))
}

func TestAuthHeader(t *testing.T) {
	cases := []struct {
		token    string
		expected string
	}{
		{token: "secret", expected: "token secret"},
		{token: "   ", expected: ""},
		{token: "", expected: ""},
	}
	for _, tc := range cases {
		var got []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Values("Authorization")
			_, _ = w.Write([]byte(`{"default_branch":"main"}`))
		}))
		a := newAdapter(t, srv.URL, tc.token)
		_, err := a.GetRepositoryMetadata(context.Background())
		srv.Close()
		require.NoError(t, err)
		if tc.expected == "" {
			require.Empty(t, got, "token %q", tc.token)
		} else {
			require.Equal(t, []string{tc.expected}, got)
		}
	}
}

func TestFetchSnapshot(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.json(http.MethodGet, "/repos/octo/demo/git/ref/heads/main", http.StatusOK, map[string]interface{}{
		"ref": "refs/heads/main", "object": map[string]string{"type": "commit", "sha": headSha},
	})
	f.json(http.MethodGet, "/repos/octo/demo/git/trees/"+headSha, http.StatusOK, map[string]interface{}{
		"sha":       treeSha,
		"truncated": true,
		"tree": []map[string]string{
			{"path": "README.md", "type": "blob", "sha": "b1", "mode": "100644"},
			{"path": "docs", "type": "tree", "sha": "t1", "mode": "040000"},
			{"path": "docs/guide.md", "type": "blob", "sha": "b2", "mode": "100644"},
		},
	})
	f.json(http.MethodGet, "/repos/octo/demo/git/blobs/b1", http.StatusOK, map[string]interface{}{
		"sha": "b1", "encoding": "base64", "size": 5, "content": base64.StdEncoding.EncodeToString([]byte("hello")),
	})
	a := newAdapter(t, srv.URL, "")
	ctx := context.Background()

	snap, err := a.FetchSnapshot(ctx, "main", 2)
	require.NoError(t, err)
	require.Equal(t, headSha, snap.HeadSha)
	require.True(t, snap.Truncated)
	require.Equal(t, map[string]string{"README.md": "b1", "docs/guide.md": "b2"}, snap.Shas)
	require.Equal(t, 0, f.count(http.MethodGet, "/repos/octo/demo/git/blobs/b1"), "content fetched eagerly")

	contents, err := snap.FetchContent(ctx, []string{"README.md", "README.md"})
	require.NoError(t, err)
	require.Equal(t, "hello", contents["README.md"])
	_, err = snap.FetchContent(ctx, []string{"README.md"})
	require.NoError(t, err)
	require.Equal(t, 1, f.count(http.MethodGet, "/repos/octo/demo/git/blobs/b1"))
}

func TestResolveCommit_AnnotatedTag(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.json(http.MethodGet, "/repos/octo/demo/git/ref/tags/v1.0", http.StatusOK, map[string]interface{}{
		"object": map[string]string{"type": "tag", "sha": "tagobject"},
	})
	f.json(http.MethodGet, "/repos/octo/demo/git/tags/tagobject", http.StatusOK, map[string]interface{}{
		"object": map[string]string{"type": "commit", "sha": commitSha},
	})
	f.json(http.MethodGet, "/repos/octo/demo/commits/abc123", http.StatusOK, map[string]string{"sha": headSha})
	a := newAdapter(t, srv.URL, "")
	ctx := context.Background()

	sha, err := a.ResolveCommit(ctx, "v1.0")
	require.NoError(t, err)
	require.Equal(t, commitSha, sha)

	sha, err = a.ResolveCommit(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, headSha, sha)

	_, err = a.ResolveCommit(ctx, "missing")
	require.ErrorIs(t, err, gitadapter.ErrNotFound)
}

func TestListCommits(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.handle(http.MethodGet, "/repos/octo/demo/commits", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "main", r.URL.Query().Get("sha"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Link", `<`+"http://x/repos/octo/demo/commits?page=3"+`>; rel="next", <http://x/repos/octo/demo/commits?page=5>; rel="last"`)
		_, _ = w.Write([]byte(`[{"sha":"` + commitSha + `","commit":{"message":"second","author":{"name":"Ada","date":"2024-01-02T03:04:05Z"},"tree":{"sha":"` + treeSha + `"}},"parents":[{"sha":"` + headSha + `"}]}]`))
	})
	a := newAdapter(t, srv.URL, "")

	page, err := a.ListCommits(context.Background(), gitadapter.CommitQuery{Ref: "main", Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	c := page.Items[0]
	require.Equal(t, commitSha, c.Sha)
	require.Equal(t, "second", c.Message)
	require.Equal(t, "Ada", c.Author)
	require.Equal(t, treeSha, c.TreeSha)
	require.Equal(t, []string{headSha}, c.Parents)
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), c.Date.UTC())
	require.Equal(t, 3, swag.IntValue(page.NextPage))
	require.Equal(t, 5, swag.IntValue(page.LastPage))
}

func TestListBranches(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.json(http.MethodGet, "/repos/octo/demo/branches", http.StatusOK, []map[string]interface{}{
		{"name": "main", "commit": map[string]string{"sha": headSha}, "protected": true},
		{"name": "dev", "commit": map[string]string{"sha": commitSha}},
	})
	f.json(http.MethodGet, "/repos/octo/demo", http.StatusOK, map[string]interface{}{"full_name": "octo/demo", "default_branch": "dev"})
	a := newAdapter(t, srv.URL, "")
	ctx := context.Background()

	branches, err := a.ListBranches(ctx, gitadapter.BranchQuery{})
	require.NoError(t, err)
	require.Equal(t, []gitadapter.BranchInfo{
		{Name: "main", Sha: headSha, Ref: "refs/heads/main", Protected: true},
		{Name: "dev", Sha: commitSha, Ref: "refs/heads/dev", IsDefault: true},
	}, branches)

	_, err = a.ListBranches(ctx, gitadapter.BranchQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, f.count(http.MethodGet, "/repos/octo/demo"), "metadata cached")
}

func TestListBranches_MetadataFailure(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.json(http.MethodGet, "/repos/octo/demo/branches", http.StatusOK, []map[string]interface{}{
		{"name": "main", "commit": map[string]string{"sha": headSha}},
	})
	f.json(http.MethodGet, "/repos/octo/demo", http.StatusForbidden, map[string]string{"message": "forbidden"})
	a := newAdapter(t, srv.URL, "")

	branches, err := a.ListBranches(context.Background(), gitadapter.BranchQuery{})
	require.NoError(t, err)
	require.True(t, branches[0].IsDefault)
}

func TestCreateBranch(t *testing.T) {
	f, srv := newFakeGitHub(t)
	f.handle(http.MethodPost, "/repos/octo/demo/git/refs", func(w http.ResponseWriter, r *http.Request) {
		if f.count(http.MethodPost, "/repos/octo/demo/git/refs") > 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Reference already exists"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ref":"refs/heads/feature","object":{"type":"commit","sha":"` + headSha + `"}}`))
	})
	a := newAdapter(t, srv.URL, "")
	ctx := context.Background()

	b, err := a.CreateBranch(ctx, "feature", headSha)
	require.NoError(t, err)
	require.Equal(t, &gitadapter.BranchInfo{Name: "feature", Sha: headSha, Ref: "refs/heads/feature"}, b)
	require.Equal(t, "refs/heads/feature", f.body(http.MethodPost, "/repos/octo/demo/git/refs", 0)["ref"])

	_, err = a.CreateBranch(ctx, "feature", headSha)
	require.ErrorIs(t, err, gitadapter.ErrAlreadyExists)
	require.True(t, strings.Contains(err.Error(), "Reference already exists"), err.Error())
}

func TestRegistered(t *testing.T) {
	require.Contains(t, gitadapter.Types(), github.AdapterType)
	a, err := gitadapter.New(context.Background(), gitadapter.Config{Type: github.AdapterType, Owner: "o", Repo: "r"}, gitadapter.Params{})
	require.NoError(t, err)
	require.Equal(t, github.AdapterType, a.Type())
}
