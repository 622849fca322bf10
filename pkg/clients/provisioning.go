package clients

import (
	"context"
	"net/http"
	"strings"

	"github.com/helixworks/intake/pkg/models"
)

// Provisioning calls the project-provisioning service, which turns a
// finished intake into a tracked project record on the host side.
type Provisioning struct {
	baseURL string
	client  *http.Client
}

// NewProvisioning creates a client for the service at baseURL.
func NewProvisioning(baseURL string) *Provisioning {
	return &Provisioning{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

// ProvisionRequest is the full packaged onboarding payload.
type ProvisionRequest struct {
	Answers  *models.Answers       `json:"answers"`
	Solution *models.Solution      `json:"solution"`
	Record   *models.ProjectRecord `json:"record"`
}

type provisionResponse struct {
	ProjectID string `json:"project_id"`
}

// Provision submits the payload and returns the identifier of the created
// project, used for follow-up navigation in the host.
func (p *Provisioning) Provision(ctx context.Context, req ProvisionRequest) (string, error) {
	var resp provisionResponse

	err := postJSON(ctx, p.client, p.baseURL+"/projects", req, &resp)
	if err != nil {
		return "", err
	}

	return resp.ProjectID, nil
}
