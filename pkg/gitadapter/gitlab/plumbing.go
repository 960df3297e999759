package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
)

// CreateBlobs computes the blob ids locally, GitLab stores content with the commit.
func (a *Adapter) CreateBlobs(_ context.Context, changes []gitadapter.Change, _ int) (map[string]string, error) {
	result := make(map[string]string, len(changes))
	for _, c := range changes {
		if c.Type != gitadapter.ChangeDelete {
			result[c.Path] = gitadapter.BlobSha(c.Content)
		}
	}
	return result, nil
}

// CreateTree buffers the actions of changes and returns a marker CreateCommit consumes.  The
// base tree is implied by the branch.
func (a *Adapter) CreateTree(_ context.Context, changes []gitadapter.Change, _ string) (string, error) {
	actions := make([]action, 0, len(changes))
	for _, c := range changes {
		act := action{Action: string(c.Type), FilePath: c.Path}
		if c.Type != gitadapter.ChangeDelete {
			act.Content = c.Content
			act.Encoding = "text"
		}
		actions = append(actions, act)
	}
	marker := newTreeMarker()
	a.pending.Store(marker, actions)
	return marker, nil
}

// CreateCommit submits the buffered actions of treeSha as one commit on the active branch.
// When parentSha is a commit sha the branch head is checked against it first.
func (a *Adapter) CreateCommit(ctx context.Context, message, parentSha, treeSha string) (string, error) {
	actions, ok := a.pending.LoadAndDelete(treeSha)
	if !ok {
		return "", fmt.Errorf("%w: %s", gitadapter.ErrUnknownTree, treeSha)
	}

	branch := a.activeBranch()
	if gitadapter.IsCommitSha(parentSha) {
		head, err := a.GetBranchHead(ctx, branch)
		switch {
		case errors.Is(err, gitadapter.ErrNotFound):
			a.log(ctx).WithField(logging.BranchFieldKey, branch).Debug("branch missing, skipping fast-forward check")
		case err != nil:
			return "", err
		case head != parentSha:
			return "", &gitadapter.NonFastForwardError{Ref: branch, Expected: parentSha, Actual: head}
		}
	}

	var out commitResponse
	_, err := a.do(ctx, http.MethodPost, "/repository/commits", nil, commitRequest{
		Branch:        branch,
		CommitMessage: message,
		Actions:       actions,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &gitadapter.NotFoundError{What: "id of created commit"}
	}
	return out.ID, nil
}

// UpdateRef does nothing, the commit already moved the branch.
func (a *Adapter) UpdateRef(context.Context, string, string, bool) error {
	return nil
}

func (a *Adapter) CreateBranch(ctx context.Context, name, sha string) (*gitadapter.BranchInfo, error) {
	var out branchResponse
	_, err := a.do(ctx, http.MethodPost, "/repository/branches", url.Values{"branch": {name}, "ref": {sha}}, nil, &out)
	var nonRetryable *gitadapter.NonRetryableError
	if errors.As(err, &nonRetryable) && nonRetryable.StatusCode == http.StatusBadRequest {
		if msg := providerMessage(nonRetryable.Body); strings.Contains(strings.ToLower(msg), "already exists") {
			return nil, &gitadapter.AlreadyExistsError{Name: name, Message: msg}
		}
	}
	if err != nil {
		return nil, err
	}
	if out.Commit.ID != "" {
		sha = out.Commit.ID
	}
	return &gitadapter.BranchInfo{
		Name:      name,
		Sha:       sha,
		Ref:       "refs/heads/" + name,
		Protected: out.Protected,
		IsDefault: name == a.metadata.DefaultBranch(ctx),
	}, nil
}

// providerMessage returns the message of an error body.  GitLab reports either a string or a
// map of field errors.
func providerMessage(body string) string {
	var e errorResponse
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		return body
	}
	switch m := e.Message.(type) {
	case string:
		return m
	case nil:
		if e.Error != "" {
			return e.Error
		}
	default:
		if data, err := json.Marshal(m); err == nil {
			return string(data)
		}
	}
	return body
}
