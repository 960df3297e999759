package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
)

func (a *Adapter) GetBranchHead(ctx context.Context, branch string) (string, error) {
	var out branchResponse
	if _, err := a.do(ctx, http.MethodGet, "/repository/branches/"+url.PathEscape(branch), nil, nil, &out); err != nil {
		return "", err
	}
	if out.Commit.ID == "" {
		return "", &gitadapter.NotFoundError{What: "head of branch " + branch}
	}
	return out.Commit.ID, nil
}

func (a *Adapter) ResolveCommit(ctx context.Context, ref string) (string, error) {
	var tag tagResponse
	_, err := a.do(ctx, http.MethodGet, "/repository/tags/"+url.PathEscape(ref), nil, nil, &tag)
	if err == nil && tag.Commit.ID != "" {
		return tag.Commit.ID, nil
	}
	if err != nil && !errors.Is(err, gitadapter.ErrNotFound) {
		return "", err
	}
	commit, err := a.GetCommit(ctx, ref)
	if err != nil {
		return "", err
	}
	return commit.Sha, nil
}

func (a *Adapter) GetCommit(ctx context.Context, sha string) (*gitadapter.CommitSummary, error) {
	var out commitResponse
	if _, err := a.do(ctx, http.MethodGet, "/repository/commits/"+url.PathEscape(sha), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &gitadapter.NotFoundError{What: "commit " + sha}
	}
	summary := toSummary(out)
	return &summary, nil
}

func (a *Adapter) GetBlob(ctx context.Context, sha string) (*gitadapter.Blob, error) {
	var out blobResponse
	if _, err := a.do(ctx, http.MethodGet, "/repository/blobs/"+url.PathEscape(sha), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Sha == "" {
		out.Sha = sha
	}
	return &gitadapter.Blob{Sha: out.Sha, Content: out.Content, Encoding: out.Encoding, Size: out.Size}, nil
}

func (a *Adapter) resolveHead(ctx context.Context, ref string) (string, error) {
	if gitadapter.IsCommitSha(ref) {
		return ref, nil
	}
	head, err := a.GetBranchHead(ctx, ref)
	if err == nil {
		return head, nil
	}
	if !errors.Is(err, gitadapter.ErrNotFound) {
		return "", err
	}
	return a.ResolveCommit(ctx, ref)
}

// FetchSnapshot lists the tree of ref page by page, following x-next-page until the last
// page.
func (a *Adapter) FetchSnapshot(ctx context.Context, ref string, concurrency int) (*gitadapter.Snapshot, error) {
	if ref == "" {
		ref = a.activeBranch()
	}
	if concurrency <= 0 {
		concurrency = a.concurrency
	}
	head, err := a.resolveHead(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}

	shas := make(map[string]string)
	page := 1
	pages := 0
	for {
		q := gitadapter.PageQuery(page, gitadapter.DefaultPerPage)
		q.Set("ref", head)
		q.Set("recursive", "true")
		var items []treeItem
		resp, err := a.do(ctx, http.MethodGet, "/repository/tree", q, nil, &items)
		if err != nil {
			return nil, fmt.Errorf("list tree page %d: %w", page, err)
		}
		pages++
		for _, item := range items {
			if item.Type == "blob" {
				shas[item.Path] = item.ID
			}
		}
		next, _ := gitadapter.ParseGitLabPages(resp.Lookup())
		if next == nil || *next <= page {
			break
		}
		page = *next
	}
	a.log(ctx).WithFields(logging.Fields{
		logging.RefFieldKey:    ref,
		logging.CommitFieldKey: head,
		"files":                len(shas),
		"pages":                pages,
	}).Debug("listed tree")

	return gitadapter.NewSnapshot(head, shas, func(ctx context.Context, path, _ string) (string, error) {
		return a.rawFile(ctx, path, head)
	}, concurrency), nil
}

func (a *Adapter) rawFile(ctx context.Context, path, ref string) (string, error) {
	resp, err := a.do(ctx, http.MethodGet, "/repository/files/"+url.PathEscape(path)+"/raw", url.Values{"ref": {ref}}, nil, nil)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

func (a *Adapter) ListCommits(ctx context.Context, query gitadapter.CommitQuery) (*gitadapter.CommitHistoryPage, error) {
	q := gitadapter.PageQuery(query.Page, query.PerPage)
	if query.Ref != "" {
		q.Set("ref_name", query.Ref)
	}
	if query.Path != "" {
		q.Set("path", query.Path)
	}
	var out []commitResponse
	resp, err := a.do(ctx, http.MethodGet, "/repository/commits", q, nil, &out)
	if err != nil {
		return nil, err
	}
	page := &gitadapter.CommitHistoryPage{Items: make([]gitadapter.CommitSummary, 0, len(out))}
	for _, c := range out {
		page.Items = append(page.Items, toSummary(c))
	}
	page.NextPage, page.LastPage = gitadapter.ParseGitLabPages(resp.Lookup())
	return page, nil
}

func (a *Adapter) ListBranches(ctx context.Context, query gitadapter.BranchQuery) ([]gitadapter.BranchInfo, error) {
	var out []branchResponse
	if _, err := a.do(ctx, http.MethodGet, "/repository/branches", gitadapter.PageQuery(query.Page, query.PerPage), nil, &out); err != nil {
		return nil, err
	}
	branches := make([]gitadapter.BranchInfo, 0, len(out))
	for _, b := range out {
		branches = append(branches, gitadapter.BranchInfo{
			Name:      b.Name,
			Sha:       b.Commit.ID,
			Ref:       "refs/heads/" + b.Name,
			Protected: b.Protected,
		})
	}
	return gitadapter.MarkDefault(branches, a.metadata.DefaultBranch(ctx)), nil
}

func (a *Adapter) GetRepositoryMetadata(ctx context.Context) (*gitadapter.RepositoryMetadata, error) {
	return a.metadata.Get(ctx)
}

func (a *Adapter) fetchRepositoryMetadata(ctx context.Context) (*gitadapter.RepositoryMetadata, error) {
	var out projectResponse
	if _, err := a.do(ctx, http.MethodGet, "", nil, nil, &out); err != nil {
		return nil, err
	}
	return &gitadapter.RepositoryMetadata{
		FullName:      out.PathWithNamespace,
		DefaultBranch: out.DefaultBranch,
		Private:       out.Visibility != "public",
		WebURL:        out.WebURL,
	}, nil
}

func toSummary(c commitResponse) gitadapter.CommitSummary {
	parents := c.ParentIDs
	if parents == nil {
		parents = []string{}
	}
	return gitadapter.CommitSummary{
		Sha:     c.ID,
		Message: c.Message,
		Author:  c.AuthorName,
		Date:    c.CommittedDate,
		Parents: parents,
	}
}
