package services

import (
	"context"
	"fmt"
	"net/http"

	"fees-service/pkg/common"
)

// IdentityClient resolves bearer tokens against the identity service.
type IdentityClient struct {
	BaseURL string
}

func NewIdentityClient(baseURL string) *IdentityClient {
	return &IdentityClient{BaseURL: baseURL}
}

type identitySessionResponse struct {
	Success   bool   `json:"success"`
	StudentID uint   `json:"studentId"`
	Message   string `json:"message"`
}

// StudentFromToken returns the student the token belongs to, or
// ErrUnauthenticated if the identity service rejects it.
func (c *IdentityClient) StudentFromToken(ctx context.Context, token string) (uint, error) {
	var resp identitySessionResponse
	url := fmt.Sprintf("%s/api/sessions/%s", c.BaseURL, token)
	status, err := common.Get(ctx, url, nil, &resp)
	if err != nil {
		return 0, fmt.Errorf("identity lookup: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusNotFound {
		return 0, ErrUnauthenticated
	}
	if status >= http.StatusBadRequest || !resp.Success {
		return 0, fmt.Errorf("identity lookup: status %d: %s", status, resp.Message)
	}
	return resp.StudentID, nil
}
