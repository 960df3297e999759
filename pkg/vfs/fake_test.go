package vfs_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/storage"
)

type fakeCommit struct {
	tree    string
	parent  string
	message string
}

// fakeRemote is an in memory git host with a single repository.
type fakeRemote struct {
	mu       sync.Mutex
	seq      int
	branches map[string]string
	commits  map[string]fakeCommit
	trees    map[string]map[string]string
	blobs    map[string]string

	blobReads   int
	pushedBlobs int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		branches: make(map[string]string),
		commits:  make(map[string]fakeCommit),
		trees:    map[string]map[string]string{},
		blobs:    make(map[string]string),
	}
}

func (f *fakeRemote) nextSha(kind string) string {
	f.seq++
	return storage.ContentSha(fmt.Sprintf("%s-%d", kind, f.seq))
}

// commitFiles commits files on top of branch as another client would.  A nil content
// deletes the path.
func (f *fakeRemote) commitFiles(branch string, files map[string]*string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent := f.branches[branch]
	tree := make(map[string]string)
	if parent != "" {
		for p, sha := range f.trees[f.commits[parent].tree] {
			tree[p] = sha
		}
	}
	for p, content := range files {
		if content == nil {
			delete(tree, p)
			continue
		}
		sha := gitadapter.BlobSha(*content)
		f.blobs[sha] = *content
		tree[p] = sha
	}
	treeSha := f.nextSha("tree")
	f.trees[treeSha] = tree
	sha := f.nextSha("commit")
	f.commits[sha] = fakeCommit{tree: treeSha, parent: parent, message: "remote"}
	f.branches[branch] = sha
	return sha
}

func (f *fakeRemote) files(branch string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for p, sha := range f.trees[f.commits[f.branches[branch]].tree] {
		out[p] = f.blobs[sha]
	}
	return out
}

func (f *fakeRemote) Type() string { return "fake" }

func (f *fakeRemote) CreateBlobs(_ context.Context, changes []gitadapter.Change, _ int) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for _, c := range changes {
		if c.Type == gitadapter.ChangeDelete {
			continue
		}
		sha := gitadapter.BlobSha(c.Content)
		f.blobs[sha] = c.Content
		f.pushedBlobs++
		out[c.Path] = sha
	}
	return out, nil
}

func (f *fakeRemote) CreateTree(_ context.Context, changes []gitadapter.Change, baseTreeSha string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tree := make(map[string]string)
	if baseTreeSha != "" {
		base, ok := f.trees[baseTreeSha]
		if !ok {
			return "", &gitadapter.NotFoundError{What: "tree " + baseTreeSha}
		}
		for p, sha := range base {
			tree[p] = sha
		}
	}
	for _, c := range changes {
		if c.Type == gitadapter.ChangeDelete {
			delete(tree, c.Path)
			continue
		}
		tree[c.Path] = c.BlobSha
	}
	sha := f.nextSha("tree")
	f.trees[sha] = tree
	return sha, nil
}

func (f *fakeRemote) CreateCommit(_ context.Context, message, parentSha, treeSha string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha := f.nextSha("commit")
	f.commits[sha] = fakeCommit{tree: treeSha, parent: parentSha, message: message}
	return sha, nil
}

func (f *fakeRemote) UpdateRef(_ context.Context, ref, commitSha string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := f.branches[ref]
	if !force && f.commits[commitSha].parent != current {
		return &gitadapter.NonFastForwardError{Ref: ref, Expected: f.commits[commitSha].parent, Actual: current}
	}
	f.branches[ref] = commitSha
	return nil
}

func (f *fakeRemote) GetBranchHead(_ context.Context, branch string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.branches[branch]
	if !ok {
		return "", &gitadapter.NotFoundError{What: "branch " + branch}
	}
	return sha, nil
}

func (f *fakeRemote) ResolveCommit(_ context.Context, ref string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.commits[ref]; !ok {
		return "", &gitadapter.NotFoundError{What: "commit " + ref}
	}
	return ref, nil
}

func (f *fakeRemote) GetCommit(_ context.Context, sha string) (*gitadapter.CommitSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commits[sha]
	if !ok {
		return nil, &gitadapter.NotFoundError{What: "commit " + sha}
	}
	var parents []string
	if c.parent != "" {
		parents = []string{c.parent}
	}
	return &gitadapter.CommitSummary{Sha: sha, Message: c.message, Parents: parents, TreeSha: c.tree}, nil
}

func (f *fakeRemote) GetBlob(_ context.Context, sha string) (*gitadapter.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.blobs[sha]
	if !ok {
		return nil, &gitadapter.NotFoundError{What: "blob " + sha}
	}
	f.blobReads++
	return &gitadapter.Blob{
		Sha:      sha,
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		Encoding: "base64",
		Size:     len(content),
	}, nil
}

func (f *fakeRemote) FetchSnapshot(_ context.Context, ref string, concurrency int) (*gitadapter.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commits[ref]
	if !ok {
		return nil, &gitadapter.NotFoundError{What: "commit " + ref}
	}
	shas := make(map[string]string)
	for p, sha := range f.trees[c.tree] {
		shas[p] = sha
	}
	fetch := func(ctx context.Context, _, sha string) (string, error) {
		blob, err := f.GetBlob(ctx, sha)
		if err != nil {
			return "", err
		}
		return blob.Decoded()
	}
	return gitadapter.NewSnapshot(ref, shas, fetch, concurrency), nil
}

func (f *fakeRemote) ListCommits(_ context.Context, query gitadapter.CommitQuery) (*gitadapter.CommitHistoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &gitadapter.CommitHistoryPage{}
	for sha := f.branches[query.Ref]; sha != ""; sha = f.commits[sha].parent {
		page.Items = append(page.Items, gitadapter.CommitSummary{Sha: sha, Message: f.commits[sha].message})
		if query.PerPage > 0 && len(page.Items) == query.PerPage {
			break
		}
	}
	return page, nil
}

func (f *fakeRemote) ListBranches(_ context.Context, _ gitadapter.BranchQuery) ([]gitadapter.BranchInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	branches := make([]gitadapter.BranchInfo, 0, len(f.branches))
	for name, sha := range f.branches {
		branches = append(branches, gitadapter.BranchInfo{Name: name, Sha: sha, Ref: "refs/heads/" + name})
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return gitadapter.MarkDefault(branches, "main"), nil
}

func (f *fakeRemote) CreateBranch(_ context.Context, name, sha string) (*gitadapter.BranchInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.branches[name]; ok {
		return nil, &gitadapter.AlreadyExistsError{Name: name, Message: "Reference already exists"}
	}
	f.branches[name] = sha
	return &gitadapter.BranchInfo{Name: name, Sha: sha, Ref: "refs/heads/" + name}, nil
}

func (f *fakeRemote) GetRepositoryMetadata(context.Context) (*gitadapter.RepositoryMetadata, error) {
	return &gitadapter.RepositoryMetadata{FullName: "octo/demo", DefaultBranch: "main"}, nil
}

func str(s string) *string { return &s }
