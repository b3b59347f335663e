package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"project-verification/portal-backend/internal/verification"
)

// notFoundMessage is what the verification service answers for a project that
// has no verification form yet.
const notFoundMessage = "There is not any project verification form for this project"

const verificationFields = `
	id
	status
	lastStep
	emailConfirmed
	email
	isTermAndConditionsAccepted
	personalInfo { fullName walletAddress email }
	socialProfiles { id socialNetwork socialNetworkId name link isVerified }
	projectRegistry {
		isNonProfitOrganization
		organizationCountry
		organizationWebsite
		organizationDescription
		organizationName
	}
	projectContacts { name url }
	managingFunds { description relatedAddresses { title address networkId } }
	milestones { foundationDate mission achievedMilestones achievedMilestonesProofs }
`

const (
	fetchQuery = `query ($slug: String!) {
	getCurrentProjectVerificationForm(slug: $slug) {` + verificationFields + `}
}`
	createMutation = `mutation ($slug: String!) {
	createProjectVerificationForm(slug: $slug) {` + verificationFields + `}
}`
	updateMutation = `mutation ($projectVerificationUpdateInput: ProjectVerificationUpdateInput!) {
	updateProjectVerificationForm(projectVerificationUpdateInput: $projectVerificationUpdateInput) {` + verificationFields + `}
}`
	socialMutation = `mutation ($socialNetwork: String!, $projectVerificationId: Int!) {
	addNewSocialProfile(socialNetwork: $socialNetwork, projectVerificationId: $projectVerificationId)
}`
)

// Config configures the verification service client
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client talks to the verification service's GraphQL endpoint
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a new verification service client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Error is a GraphQL-level failure returned by the service
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "verification service: " + strings.Join(e.Messages, "; ")
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("verification service request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var gr gqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("verification service returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			if e.Message == notFoundMessage {
				return verification.ErrNotFound
			}
			msgs = append(msgs, e.Message)
		}
		return &Error{Messages: msgs}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Fetch loads the current verification form of a project
func (c *Client) Fetch(ctx context.Context, slug string) (*verification.Record, error) {
	var data struct {
		Form *verification.Record `json:"getCurrentProjectVerificationForm"`
	}
	if err := c.do(ctx, fetchQuery, map[string]any{"slug": slug}, &data); err != nil {
		return nil, err
	}
	if data.Form == nil {
		return nil, verification.ErrNotFound
	}
	return data.Form, nil
}

// Create opens a verification form for a project
func (c *Client) Create(ctx context.Context, slug string) (*verification.Record, error) {
	var data struct {
		Form *verification.Record `json:"createProjectVerificationForm"`
	}
	if err := c.do(ctx, createMutation, map[string]any{"slug": slug}, &data); err != nil {
		return nil, err
	}
	c.logger.Info("Verification form created", zap.String("slug", slug))
	return data.Form, nil
}

// Update writes one step of the verification form
func (c *Client) Update(ctx context.Context, verificationID string, step verification.StepName, input verification.UpdateInput) (*verification.Record, error) {
	id, err := numericID(verificationID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"projectVerificationId": id,
		"step":                  step,
	}
	if input.PersonalInfo != nil {
		payload["personalInfo"] = input.PersonalInfo
	}
	if input.ProjectRegistry != nil {
		payload["projectRegistry"] = input.ProjectRegistry
	}
	if input.ProjectContacts != nil {
		payload["projectContacts"] = input.ProjectContacts
	}
	if input.ManagingFunds != nil {
		payload["managingFunds"] = input.ManagingFunds
	}
	if input.Milestones != nil {
		payload["milestones"] = input.Milestones
	}
	if input.IsTermsAccepted != nil {
		payload["isTermAndConditionsAccepted"] = *input.IsTermsAccepted
	}

	var data struct {
		Form *verification.Record `json:"updateProjectVerificationForm"`
	}
	vars := map[string]any{"projectVerificationUpdateInput": payload}
	if err := c.do(ctx, updateMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.Form, nil
}

// RequestSocialAuthorization returns the url that starts the platform's
// authorization flow
func (c *Client) RequestSocialAuthorization(ctx context.Context, platform, verificationID string) (string, error) {
	id, err := numericID(verificationID)
	if err != nil {
		return "", err
	}
	var data struct {
		URL string `json:"addNewSocialProfile"`
	}
	vars := map[string]any{"socialNetwork": platform, "projectVerificationId": id}
	if err := c.do(ctx, socialMutation, vars, &data); err != nil {
		return "", err
	}
	return data.URL, nil
}

func numericID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("invalid verification id %q: %w", id, err)
	}
	return n, nil
}
