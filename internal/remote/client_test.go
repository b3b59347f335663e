package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-verification/portal-backend/internal/verification"
)

func newTestServer(t *testing.T, handler func(t *testing.T, req gqlRequest) any) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req gqlRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(handler(t, req)))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Endpoint: srv.URL, Token: "secret"}, nil)
	require.NoError(t, err)
	return client
}

func TestFetch(t *testing.T) {
	client := newTestServer(t, func(t *testing.T, req gqlRequest) any {
		assert.Contains(t, req.Query, "getCurrentProjectVerificationForm")
		assert.Equal(t, "my-project", req.Variables["slug"])
		return map[string]any{"data": map[string]any{
			"getCurrentProjectVerificationForm": map[string]any{
				"id":             "42",
				"status":         "draft",
				"lastStep":       "PERSONAL_INFO",
				"emailConfirmed": true,
				"socialProfiles": []map[string]any{{"socialNetwork": "discord", "socialNetworkId": "ada#1"}},
			},
		}}
	})

	rec, err := client.Fetch(context.Background(), "my-project")

	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, verification.StepPersonalInfo, rec.LastStep)
	assert.True(t, rec.EmailConfirmed)
	p, ok := rec.Profile("discord")
	assert.True(t, ok)
	assert.True(t, p.Linked())
}

func TestFetchNotFound(t *testing.T) {
	client := newTestServer(t, func(t *testing.T, req gqlRequest) any {
		return map[string]any{
			"data":   nil,
			"errors": []map[string]any{{"message": notFoundMessage}},
		}
	})

	_, err := client.Fetch(context.Background(), "new-project")

	assert.ErrorIs(t, err, verification.ErrNotFound)
}

func TestFetchGraphQLError(t *testing.T) {
	client := newTestServer(t, func(t *testing.T, req gqlRequest) any {
		return map[string]any{"errors": []map[string]any{{"message": "Authentication required."}}}
	})

	_, err := client.Fetch(context.Background(), "my-project")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []string{"Authentication required."}, gerr.Messages)
}

func TestUpdateSendsOnlyStepSection(t *testing.T) {
	client := newTestServer(t, func(t *testing.T, req gqlRequest) any {
		input, ok := req.Variables["projectVerificationUpdateInput"].(map[string]any)
		if !assert.True(t, ok) {
			return nil
		}
		assert.Equal(t, float64(42), input["projectVerificationId"])
		assert.Equal(t, "PROJECT_CONTACTS", input["step"])
		assert.Len(t, input["projectContacts"], 1)
		assert.NotContains(t, input, "personalInfo")
		assert.NotContains(t, input, "isTermAndConditionsAccepted")
		return map[string]any{"data": map[string]any{
			"updateProjectVerificationForm": map[string]any{
				"id":       "42",
				"status":   "draft",
				"lastStep": "PROJECT_CONTACTS",
			},
		}}
	})

	rec, err := client.Update(context.Background(), "42", verification.StepProjectContacts, verification.UpdateInput{
		ProjectContacts: []verification.ProjectContact{{Name: "twitter", URL: "https://twitter.com/x"}},
	})

	require.NoError(t, err)
	assert.Equal(t, verification.StepProjectContacts, rec.LastStep)
}

func TestRequestSocialAuthorization(t *testing.T) {
	client := newTestServer(t, func(t *testing.T, req gqlRequest) any {
		assert.Equal(t, "discord", req.Variables["socialNetwork"])
		assert.Equal(t, float64(42), req.Variables["projectVerificationId"])
		return map[string]any{"data": map[string]any{"addNewSocialProfile": "https://discord.com/oauth2/authorize"}}
	})

	url, err := client.RequestSocialAuthorization(context.Background(), "discord", "42")

	require.NoError(t, err)
	assert.Equal(t, "https://discord.com/oauth2/authorize", url)

	_, err = client.RequestSocialAuthorization(context.Background(), "discord", "not-a-number")
	assert.Error(t, err)
}

func TestHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	client, err := NewClient(Config{Endpoint: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), "x")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, verification.ErrNotFound)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}
