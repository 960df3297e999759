package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/treeverse/gitvfs/pkg/batch"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

const fileMode = "100644"

func (a *Adapter) CreateBlobs(ctx context.Context, changes []gitadapter.Change, concurrency int) (map[string]string, error) {
	if concurrency <= 0 {
		concurrency = a.concurrency
	}
	uploads := make([]gitadapter.Change, 0, len(changes))
	for _, c := range changes {
		if c.Type != gitadapter.ChangeDelete {
			uploads = append(uploads, c)
		}
	}
	shas, err := batch.Map(ctx, uploads, concurrency, func(ctx context.Context, c gitadapter.Change) (string, error) {
		return a.createBlob(ctx, c.Content)
	})
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(uploads))
	for i, c := range uploads {
		result[c.Path] = shas[i]
	}
	return result, nil
}

// createBlob uploads content once per adapter, keyed by its git blob id.
func (a *Adapter) createBlob(ctx context.Context, content string) (string, error) {
	v, err := a.blobs.GetOrSet(gitadapter.BlobSha(content), func() (interface{}, error) {
		var out shaObject
		_, err := a.do(ctx, http.MethodPost, "/git/blobs", nil, blobRequest{Content: content, Encoding: "utf-8"}, &out)
		if err != nil {
			return nil, err
		}
		if out.Sha == "" {
			return nil, &gitadapter.NotFoundError{What: "sha of created blob"}
		}
		return out.Sha, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *Adapter) CreateTree(ctx context.Context, changes []gitadapter.Change, baseTreeSha string) (string, error) {
	req := treeRequest{BaseTree: baseTreeSha, Tree: make([]map[string]interface{}, 0, len(changes))}
	for _, c := range changes {
		entry := map[string]interface{}{"path": c.Path, "mode": fileMode, "type": "blob"}
		switch {
		case c.Type == gitadapter.ChangeDelete:
			entry["sha"] = nil
		case c.BlobSha != "":
			entry["sha"] = c.BlobSha
		default:
			entry["content"] = c.Content
		}
		req.Tree = append(req.Tree, entry)
	}
	var out shaObject
	if _, err := a.do(ctx, http.MethodPost, "/git/trees", nil, req, &out); err != nil {
		return "", err
	}
	if out.Sha == "" {
		return "", &gitadapter.NotFoundError{What: "sha of created tree"}
	}
	return out.Sha, nil
}

func (a *Adapter) CreateCommit(ctx context.Context, message, parentSha, treeSha string) (string, error) {
	req := commitRequest{Message: message, Tree: treeSha}
	if gitadapter.IsCommitSha(parentSha) {
		req.Parents = []string{parentSha}
	}
	var out shaObject
	if _, err := a.do(ctx, http.MethodPost, "/git/commits", nil, req, &out); err != nil {
		return "", err
	}
	if out.Sha == "" {
		return "", &gitadapter.NotFoundError{What: "sha of created commit"}
	}
	return out.Sha, nil
}

func (a *Adapter) UpdateRef(ctx context.Context, ref, commitSha string, force bool) error {
	ref = headsRef(ref)
	_, err := a.do(ctx, http.MethodPatch, "/git/refs/"+escapeRef(ref), nil, updateRefRequest{Sha: commitSha, Force: force}, nil)
	var nonRetryable *gitadapter.NonRetryableError
	if errors.As(err, &nonRetryable) && nonRetryable.StatusCode == http.StatusUnprocessableEntity {
		return &gitadapter.NonFastForwardError{Ref: ref, Expected: commitSha, Body: providerMessage(nonRetryable.Body)}
	}
	if err != nil {
		return fmt.Errorf("update ref %s: %w", ref, err)
	}
	return nil
}

func (a *Adapter) CreateBranch(ctx context.Context, name, sha string) (*gitadapter.BranchInfo, error) {
	ref := "refs/heads/" + name
	var out refResponse
	_, err := a.do(ctx, http.MethodPost, "/git/refs", nil, createRefRequest{Ref: ref, Sha: sha}, &out)
	var nonRetryable *gitadapter.NonRetryableError
	if errors.As(err, &nonRetryable) && nonRetryable.StatusCode == http.StatusUnprocessableEntity {
		if msg := providerMessage(nonRetryable.Body); strings.Contains(strings.ToLower(msg), "already exists") {
			return nil, &gitadapter.AlreadyExistsError{Name: name, Message: msg}
		}
	}
	if err != nil {
		return nil, err
	}
	if out.Object.Sha != "" {
		sha = out.Object.Sha
	}
	return &gitadapter.BranchInfo{
		Name:      name,
		Sha:       sha,
		Ref:       ref,
		IsDefault: name == a.metadata.DefaultBranch(ctx),
	}, nil
}

// providerMessage returns the message field of an error body, the body itself when it has
// none.
func providerMessage(body string) string {
	var e errorResponse
	if err := json.Unmarshal([]byte(body), &e); err == nil && e.Message != "" {
		return e.Message
	}
	return body
}
