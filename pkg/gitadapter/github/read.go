package github

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
	var out refResponse
	if _, err := a.do(ctx, http.MethodGet, "/git/ref/"+escapeRef(headsRef(branch)), nil, nil, &out); err != nil {
		return "", err
	}
	if out.Object.Sha == "" {
		return "", &gitadapter.NotFoundError{What: "head of branch " + branch}
	}
	return out.Object.Sha, nil
}

func (a *Adapter) ResolveCommit(ctx context.Context, ref string) (string, error) {
	var tagRef refResponse
	_, err := a.do(ctx, http.MethodGet, "/git/ref/tags/"+escapeRef(ref), nil, nil, &tagRef)
	if err == nil && tagRef.Object.Sha != "" {
		if tagRef.Object.Type != "tag" {
			return tagRef.Object.Sha, nil
		}
		// annotated tag, peel to its commit
		var tag tagResponse
		if _, err := a.do(ctx, http.MethodGet, "/git/tags/"+tagRef.Object.Sha, nil, nil, &tag); err != nil {
			return "", err
		}
		if tag.Object.Sha == "" {
			return "", &gitadapter.NotFoundError{What: "commit of tag " + ref}
		}
		return tag.Object.Sha, nil
	}
	if err != nil && !errors.Is(err, gitadapter.ErrNotFound) {
		return "", err
	}

	var commit repoCommit
	if _, err := a.do(ctx, http.MethodGet, "/commits/"+escapeRef(ref), nil, nil, &commit); err != nil {
		return "", err
	}
	if commit.Sha == "" {
		return "", &gitadapter.NotFoundError{What: "commit " + ref}
	}
	return commit.Sha, nil
}

func (a *Adapter) GetCommit(ctx context.Context, sha string) (*gitadapter.CommitSummary, error) {
	var out gitCommit
	if _, err := a.do(ctx, http.MethodGet, "/git/commits/"+url.PathEscape(sha), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Sha == "" {
		return nil, &gitadapter.NotFoundError{What: "commit " + sha}
	}
	summary := toSummary(out.Sha, out, out.Parents)
	return &summary, nil
}

func (a *Adapter) GetBlob(ctx context.Context, sha string) (*gitadapter.Blob, error) {
	var out blobResponse
	if _, err := a.do(ctx, http.MethodGet, "/git/blobs/"+url.PathEscape(sha), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Sha == "" {
		return nil, &gitadapter.NotFoundError{What: "blob " + sha}
	}
	return &gitadapter.Blob{Sha: out.Sha, Content: out.Content, Encoding: out.Encoding, Size: out.Size}, nil
}

// resolveHead returns the commit sha of ref: ref itself when it is a sha, else the branch head,
// else the tag or commit it names.
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

// FetchSnapshot lists the tree of ref with a single recursive call.  GitHub truncates very
// large trees; the partial listing is returned with Truncated set.
func (a *Adapter) FetchSnapshot(ctx context.Context, ref string, concurrency int) (*gitadapter.Snapshot, error) {
	if ref == "" {
		ref = a.cfg.BranchOrDefault()
	}
	if concurrency <= 0 {
		concurrency = a.concurrency
	}
	head, err := a.resolveHead(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}

	var tree treeResponse
	if _, err := a.do(ctx, http.MethodGet, "/git/trees/"+url.PathEscape(head), url.Values{"recursive": {"1"}}, nil, &tree); err != nil {
		return nil, err
	}
	shas := make(map[string]string, len(tree.Tree))
	for _, e := range tree.Tree {
		if e.Type == "blob" {
			shas[e.Path] = e.Sha
		}
	}
	if tree.Truncated {
		a.log(ctx).WithFields(logging.Fields{
			logging.RefFieldKey:    ref,
			logging.CommitFieldKey: head,
			"files":                len(shas),
		}).Warn("tree listing truncated, snapshot is partial")
	}

	snap := gitadapter.NewSnapshot(head, shas, func(ctx context.Context, _, sha string) (string, error) {
		blob, err := a.GetBlob(ctx, sha)
		if err != nil {
			return "", err
		}
		return blob.Decoded()
	}, concurrency)
	snap.Truncated = tree.Truncated
	return snap, nil
}

func (a *Adapter) ListCommits(ctx context.Context, query gitadapter.CommitQuery) (*gitadapter.CommitHistoryPage, error) {
	q := gitadapter.PageQuery(query.Page, query.PerPage)
	if query.Ref != "" {
		q.Set("sha", query.Ref)
	}
	if query.Path != "" {
		q.Set("path", query.Path)
	}
	var out []repoCommit
	resp, err := a.do(ctx, http.MethodGet, "/commits", q, nil, &out)
	if err != nil {
		return nil, err
	}
	page := &gitadapter.CommitHistoryPage{Items: make([]gitadapter.CommitSummary, 0, len(out))}
	for _, c := range out {
		page.Items = append(page.Items, toSummary(c.Sha, c.Commit, c.Parents))
	}
	page.NextPage, page.LastPage = gitadapter.ParseLinkPages(resp.Lookup())
	return page, nil
}

func (a *Adapter) ListBranches(ctx context.Context, query gitadapter.BranchQuery) ([]gitadapter.BranchInfo, error) {
	var out []branchResponse
	if _, err := a.do(ctx, http.MethodGet, "/branches", gitadapter.PageQuery(query.Page, query.PerPage), nil, &out); err != nil {
		return nil, err
	}
	branches := make([]gitadapter.BranchInfo, 0, len(out))
	for _, b := range out {
		branches = append(branches, gitadapter.BranchInfo{
			Name:      b.Name,
			Sha:       b.Commit.Sha,
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
	var out repositoryResponse
	if _, err := a.do(ctx, http.MethodGet, "", nil, nil, &out); err != nil {
		return nil, err
	}
	return &gitadapter.RepositoryMetadata{
		FullName:      out.FullName,
		DefaultBranch: out.DefaultBranch,
		Private:       out.Private,
		WebURL:        out.HTMLURL,
	}, nil
}

func toSummary(sha string, c gitCommit, parents []shaObject) gitadapter.CommitSummary {
	summary := gitadapter.CommitSummary{
		Sha:     sha,
		Message: c.Message,
		Author:  c.Author.Name,
		Date:    c.Author.Date,
		TreeSha: c.Tree.Sha,
		Parents: make([]string, 0, len(parents)),
	}
	for _, p := range parents {
		summary.Parents = append(summary.Parents, p.Sha)
	}
	return summary
}
