// Package gitadapter talks to git hosting providers over their REST plumbing APIs.  Providers
// implement Adapter and register a Factory under their type name.
package gitadapter

//go:generate mockgen -source=adapter.go -destination=mock/adapter.go -package=mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Change is a single path operation of a commit.
type Change struct {
	Type    ChangeType `json:"type"`
	Path    string     `json:"path"`
	Content string     `json:"content,omitempty"`
	// BaseSha is the base content sha a delete expects
	BaseSha string `json:"baseSha,omitempty"`
	// BlobSha is set once the content was stored remotely
	BlobSha string `json:"blobSha,omitempty"`
}

type CommitSummary struct {
	Sha     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Parents []string  `json:"parents"`
	TreeSha string    `json:"treeSha,omitempty"`
}

type CommitHistoryPage struct {
	Items    []CommitSummary `json:"items"`
	NextPage *int            `json:"nextPage,omitempty"`
	LastPage *int            `json:"lastPage,omitempty"`
}

type CommitQuery struct {
	Ref     string
	Path    string
	Page    int
	PerPage int
}

type BranchQuery struct {
	Page    int
	PerPage int
}

type BranchInfo struct {
	Name      string `json:"name"`
	Sha       string `json:"sha"`
	Ref       string `json:"ref"`
	Protected bool   `json:"protected"`
	IsDefault bool   `json:"isDefault"`
}

type RepositoryMetadata struct {
	FullName      string `json:"fullName"`
	DefaultBranch string `json:"defaultBranch"`
	Private       bool   `json:"private"`
	WebURL        string `json:"webUrl,omitempty"`
}

// Blob is remote blob content as reported by the provider.
type Blob struct {
	Sha      string
	Content  string
	Encoding string
	Size     int
}

// Decoded returns the blob content, decoding base64 when the provider reported that encoding.
func (b *Blob) Decoded() (string, error) {
	if !strings.EqualFold(b.Encoding, "base64") {
		return b.Content, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.NewReplacer("\n", "", "\r", "").Replace(b.Content))
	if err != nil {
		return "", fmt.Errorf("decode blob %s: %w", b.Sha, err)
	}
	return string(data), nil
}

// Adapter is the capability set of a git hosting provider.
type Adapter interface {
	// Type returns the provider type name the adapter was registered under.
	Type() string

	// CreateBlobs stores the content of every non delete change and returns the blob sha of
	// each path.  Identical content is uploaded once per adapter.
	CreateBlobs(ctx context.Context, changes []Change, concurrency int) (map[string]string, error)
	// CreateTree returns a tree applying changes on top of baseTreeSha, when set.
	CreateTree(ctx context.Context, changes []Change, baseTreeSha string) (string, error)
	// CreateCommit commits treeSha with parentSha as its parent.  A parentSha that is not a
	// commit sha creates a commit with no parents.
	CreateCommit(ctx context.Context, message, parentSha, treeSha string) (string, error)
	// UpdateRef moves ref to commitSha.  Failures to fast-forward return NonFastForwardError.
	UpdateRef(ctx context.Context, ref, commitSha string, force bool) error

	GetBranchHead(ctx context.Context, branch string) (string, error)
	// ResolveCommit resolves a tag or commit reference to a commit sha.
	ResolveCommit(ctx context.Context, ref string) (string, error)
	GetCommit(ctx context.Context, sha string) (*CommitSummary, error)
	GetBlob(ctx context.Context, sha string) (*Blob, error)
	// FetchSnapshot lists the tree of ref.  No content is fetched.
	FetchSnapshot(ctx context.Context, ref string, concurrency int) (*Snapshot, error)

	ListCommits(ctx context.Context, query CommitQuery) (*CommitHistoryPage, error)
	ListBranches(ctx context.Context, query BranchQuery) ([]BranchInfo, error)
	CreateBranch(ctx context.Context, name, sha string) (*BranchInfo, error)
	GetRepositoryMetadata(ctx context.Context) (*RepositoryMetadata, error)
}

// BranchSetter is implemented by adapters whose commits land on their configured branch
// rather than on the ref passed to UpdateRef.
type BranchSetter interface {
	SetBranch(name string)
}
