package github

import "time"

type shaObject struct {
	Sha string `json:"sha"`
}

type refResponse struct {
	Ref    string `json:"ref"`
	Object struct {
		Type string `json:"type"`
		Sha  string `json:"sha"`
	} `json:"object"`
}

type tagResponse struct {
	Object struct {
		Type string `json:"type"`
		Sha  string `json:"sha"`
	} `json:"object"`
}

type blobRequest struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type blobResponse struct {
	Sha      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
}

type treeRequest struct {
	BaseTree string                   `json:"base_tree,omitempty"`
	Tree     []map[string]interface{} `json:"tree"`
}

type treeResponse struct {
	Sha       string `json:"sha"`
	Truncated bool   `json:"truncated"`
	Tree      []struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Type string `json:"type"`
		Sha  string `json:"sha"`
	} `json:"tree"`
}

type commitRequest struct {
	Message string   `json:"message"`
	Tree    string   `json:"tree"`
	Parents []string `json:"parents,omitempty"`
}

type signature struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type gitCommit struct {
	Sha       string      `json:"sha"`
	Message   string      `json:"message"`
	Author    signature   `json:"author"`
	Committer signature   `json:"committer"`
	Tree      shaObject   `json:"tree"`
	Parents   []shaObject `json:"parents"`
}

type repoCommit struct {
	Sha     string      `json:"sha"`
	Commit  gitCommit   `json:"commit"`
	Parents []shaObject `json:"parents"`
}

type updateRefRequest struct {
	Sha   string `json:"sha"`
	Force bool   `json:"force"`
}

type createRefRequest struct {
	Ref string `json:"ref"`
	Sha string `json:"sha"`
}

type branchResponse struct {
	Name      string    `json:"name"`
	Commit    shaObject `json:"commit"`
	Protected bool      `json:"protected"`
}

type repositoryResponse struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
}

type errorResponse struct {
	Message string `json:"message"`
}
