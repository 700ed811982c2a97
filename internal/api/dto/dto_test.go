package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestUpdateTicketRequestDistinguishesEmptyResolution(t *testing.T) {
	var req UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"resolved","resolution_details":"","resolved_at":"2024-05-01T12:00:00Z"}`), &req))
	assert.True(t, req.ResolutionDetails.Valid)
	assert.Equal(t, "", req.ResolutionDetails.String)
	assert.False(t, req.AgentID.Valid)
	require.NoError(t, Validate(req))

	var nulls UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{"agent_id":null}`), &nulls))
	assert.False(t, nulls.AgentID.Valid)
	require.NoError(t, Validate(nulls))
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	var req UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"pending","agent_id":0}`), &req))
	err := Validate(req)
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "oneof=open in_progress resolved closed", de.Details["status"])
	assert.Equal(t, "gt=0", de.Details["agent_id"])
}

func TestCreateTicketValidation(t *testing.T) {
	err := Validate(CreateTicketRequest{Title: "t", Description: "d", Category: "hardware", Impact: "huge"})
	de := apperrors.ToDomainError(err)
	assert.Contains(t, de.Details, "impact")

	assert.NoError(t, Validate(CreateTicketRequest{
		Title: "t", Description: "d", Category: "hardware", Impact: domain.TicketImpactHigh,
		Attachments: []AttachmentRequest{{Filename: "a.txt", URL: "https://example.com/a.txt"}},
	}))
}

func TestTicketResponseMasksResolvedForClients(t *testing.T) {
	at := time.Now()
	ticket := &domain.Ticket{ID: 1, Status: domain.TicketStatusResolved, ResolutionDetails: ptrTo("done"), ResolvedAt: &at}

	client := NewTicketResponse(domain.RoleClient, ticket)
	assert.Equal(t, domain.TicketStatusInProgress, client.Status)
	assert.Nil(t, client.ResolutionDetails)

	agent := NewTicketResponse(domain.RoleAgent, ticket)
	assert.Equal(t, domain.TicketStatusResolved, agent.Status)
	assert.Equal(t, "done", *agent.ResolutionDetails)

	ticket.Status = domain.TicketStatusClosed
	assert.Equal(t, domain.TicketStatusClosed, NewTicketResponse(domain.RoleClient, ticket).Status)
}

func ptrTo[T any](v T) *T { return &v }
