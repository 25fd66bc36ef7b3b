package dto

import "fmt"

// WebhookPayload is the subset of a GitHub webhook body the ingestion
// path cares about. The event-type discriminator arrives separately in
// the X-GitHub-Event header; exactly one of PullRequest/Issue must be
// present depending on it.
type WebhookPayload struct {
	Action       string       `json:"action"`
	Repository   Repository   `json:"repository"`
	Sender       Account      `json:"sender"`
	Organization *Account     `json:"organization,omitempty"`
	PullRequest  *PullRequest `json:"pull_request,omitempty"`
	Issue        *Issue       `json:"issue,omitempty"`
}

type Repository struct {
	FullName string `json:"full_name"`
}

type Account struct {
	Login string `json:"login"`
}

type PullRequest struct {
	ID      int64   `json:"id"`
	Number  int64   `json:"number"`
	Title   string  `json:"title"`
	HTMLURL string  `json:"html_url"`
	DiffURL string  `json:"diff_url"`
	User    Account `json:"user"`
}

type Issue struct {
	ID       int64    `json:"id"`
	Number   int64    `json:"number"`
	Title    string   `json:"title"`
	HTMLURL  string   `json:"html_url"`
	Assignee *Account `json:"assignee"`
}

// ValidatePullRequest checks the fields a pull_request event must carry.
func (p *WebhookPayload) ValidatePullRequest() error {
	if err := p.validateCommon(); err != nil {
		return err
	}
	if p.PullRequest == nil {
		return fmt.Errorf("missing pull_request object")
	}
	if p.PullRequest.ID == 0 {
		return fmt.Errorf("missing pull_request.id")
	}
	if p.PullRequest.User.Login == "" {
		return fmt.Errorf("missing pull_request.user.login")
	}
	return nil
}

// ValidateIssue checks the fields an issues event must carry.
func (p *WebhookPayload) ValidateIssue() error {
	if err := p.validateCommon(); err != nil {
		return err
	}
	if p.Issue == nil {
		return fmt.Errorf("missing issue object")
	}
	if p.Issue.ID == 0 {
		return fmt.Errorf("missing issue.id")
	}
	return nil
}

func (p *WebhookPayload) validateCommon() error {
	if p.Action == "" {
		return fmt.Errorf("missing action")
	}
	if p.Repository.FullName == "" {
		return fmt.Errorf("missing repository.full_name")
	}
	if p.Sender.Login == "" {
		return fmt.Errorf("missing sender.login")
	}
	return nil
}
