package gitlab

import "time"

type action struct {
	Action   string `json:"action"`
	FilePath string `json:"file_path"`
	Content  string `json:"content,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type commitRequest struct {
	Branch        string   `json:"branch"`
	CommitMessage string   `json:"commit_message"`
	Actions       []action `json:"actions"`
}

type commitResponse struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	AuthorName    string    `json:"author_name"`
	CommittedDate time.Time `json:"committed_date"`
	ParentIDs     []string  `json:"parent_ids"`
}

type branchResponse struct {
	Name      string         `json:"name"`
	Commit    commitResponse `json:"commit"`
	Protected bool           `json:"protected"`
	Default   bool           `json:"default"`
}

type tagResponse struct {
	Name   string         `json:"name"`
	Commit commitResponse `json:"commit"`
}

type treeItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
	Mode string `json:"mode"`
}

type blobResponse struct {
	Sha      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
}

type projectResponse struct {
	PathWithNamespace string `json:"path_with_namespace"`
	DefaultBranch     string `json:"default_branch"`
	Visibility        string `json:"visibility"`
	WebURL            string `json:"web_url"`
}

type errorResponse struct {
	Message interface{} `json:"message"`
	Error   string      `json:"error"`
}
