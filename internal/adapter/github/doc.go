// Package github is a thin HTTP client for the GitHub REST API, covering
// the operations the review agent needs: pull request metadata and changed
// files, review and comment creation, merge-safety queries, merging, and
// the contents API for scripted commits.
//
// The client authenticates with a personal access token (or the Actions
// GITHUB_TOKEN), retries transient failures with exponential backoff, and
// maps HTTP status codes to typed errors. Pagination is intentionally not
// implemented; the agent operates on the first page of results.
package github
