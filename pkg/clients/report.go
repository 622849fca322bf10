package clients

import (
	"context"
	"net/http"
	"strings"

	"github.com/helixworks/intake/pkg/models"
)

// Report calls the email/report service. The call is fire-and-forget from
// the session's point of view: a failure is logged and never blocks the
// save-for-later action that triggered it.
type Report struct {
	baseURL string
	client  *http.Client
}

// NewReport creates a client for the service at baseURL.
func NewReport(baseURL string) *Report {
	return &Report{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

// ReportRequest carries the saved intake to the mailer.
type ReportRequest struct {
	Email    string           `json:"email"`
	Answers  *models.Answers  `json:"answers"`
	Solution *models.Solution `json:"solution"`
}

// Send submits the report request. The acknowledgement body is discarded.
func (r *Report) Send(ctx context.Context, req ReportRequest) error {
	return postJSON(ctx, r.client, r.baseURL+"/reports", req, nil)
}
