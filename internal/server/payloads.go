package server

// Wire shapes for the subset of GitHub webhook payloads the server
// handles. Only the fields the dispatcher needs are declared.

type repositoryPayload struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type pingEvent struct {
	Zen  string `json:"zen"`
	Hook struct {
		ID int64 `json:"id"`
	} `json:"hook"`
}

type pullRequestEvent struct {
	Action      string            `json:"action"`
	Number      int               `json:"number"`
	Repository  repositoryPayload `json:"repository"`
	PullRequest struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	} `json:"pull_request"`
}

type issuesEvent struct {
	Action     string            `json:"action"`
	Repository repositoryPayload `json:"repository"`
	Issue      struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		State  string `json:"state"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		HTMLURL string `json:"html_url"`
	} `json:"issue"`
}

type pushEvent struct {
	Ref        string            `json:"ref"`
	Repository repositoryPayload `json:"repository"`
	Commits    []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"commits"`
}

// reviewActions are the pull_request actions that trigger a review.
var reviewActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}
