package controller_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/models"
)

func sendInvitation(t *testing.T, app *fiber.App, token string, taskID, userID uint, asAdmin bool) {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/invitations", token, fiber.Map{
		"task_id":  taskID,
		"user_id":  userID,
		"is_admin": asAdmin,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func listInvitations(t *testing.T, app *fiber.App, token string) []struct {
	InvitationID   uint   `json:"invitation_id"`
	TaskID         uint   `json:"task_id"`
	TaskName       string `json:"task_name"`
	AsAdmin        bool   `json:"as_admin"`
	InviterName    string `json:"inviter_name"`
	InviterSurname string `json:"inviter_surname"`
} {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/invitations", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var invitations []struct {
		InvitationID   uint   `json:"invitation_id"`
		TaskID         uint   `json:"task_id"`
		TaskName       string `json:"task_name"`
		AsAdmin        bool   `json:"as_admin"`
		InviterName    string `json:"inviter_name"`
		InviterSurname string `json:"inviter_surname"`
	}
	decodeBody(t, resp, &invitations)
	return invitations
}

func TestSendInvitationGuards(t *testing.T) {
	app, _ := newTestApp(t)
	adminToken, _ := registerAndLogin(t, app, "Ada", "Lovelace", "ada@example.com")
	memberToken, memberID := registerAndLogin(t, app, "Grace", "Hopper", "grace@example.com")
	_, targetID := registerAndLogin(t, app, "Alan", "Turing", "alan@example.com")

	taskID := createTask(t, app, adminToken, "Inviting")
	addMember(t, app, adminToken, taskID, memberID, false)

	// only admins may invite
	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/invitations", memberToken, fiber.Map{
		"task_id": taskID,
		"user_id": targetID,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// inviting an existing member conflicts
	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/invitations", adminToken, fiber.Map{
		"task_id": taskID,
		"user_id": memberID,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// inviting an unknown user is a 404
	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/invitations", adminToken, fiber.Map{
		"task_id": taskID,
		"user_id": 9999,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// a second pending invitation for the same pair conflicts
	sendInvitation(t, app, adminToken, taskID, targetID, false)
	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/invitations", adminToken, fiber.Map{
		"task_id": taskID,
		"user_id": targetID,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestListInvitationsEnriched(t *testing.T) {
	app, _ := newTestApp(t)
	adminToken, _ := registerAndLogin(t, app, "Ada", "Lovelace", "ada@example.com")
	targetToken, targetID := registerAndLogin(t, app, "Grace", "Hopper", "grace@example.com")

	taskID := createTask(t, app, adminToken, "Inviting")
	sendInvitation(t, app, adminToken, taskID, targetID, true)

	invitations := listInvitations(t, app, targetToken)
	require.Len(t, invitations, 1)
	assert.Equal(t, taskID, invitations[0].TaskID)
	assert.Equal(t, "Inviting", invitations[0].TaskName)
	assert.True(t, invitations[0].AsAdmin)
	assert.Equal(t, "Ada", invitations[0].InviterName)
	assert.Equal(t, "Lovelace", invitations[0].InviterSurname)

	// the inviter's own list stays empty
	assert.Empty(t, listInvitations(t, app, adminToken))
}

func TestAcceptInvitationSingleUse(t *testing.T) {
	app, db := newTestApp(t)
	adminToken, _ := registerAndLogin(t, app, "Ada", "Lovelace", "ada@example.com")
	targetToken, targetID := registerAndLogin(t, app, "Grace", "Hopper", "grace@example.com")

	taskID := createTask(t, app, adminToken, "Joining")
	sendInvitation(t, app, adminToken, taskID, targetID, true)

	invitations := listInvitations(t, app, targetToken)
	require.Len(t, invitations, 1)
	invitationID := invitations[0].InvitationID

	resp := doJSON(t, app, fiber.MethodPost,
		fmt.Sprintf("/api/v1/invitations/%d/accept", invitationID), targetToken, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// the proposed admin flag carries over
	var membership models.Membership
	require.NoError(t, db.Where("task_id = ? AND user_id = ?", taskID, targetID).
		First(&membership).Error)
	assert.True(t, membership.IsAdmin)
	assert.Zero(t, countRows(t, db, &models.Invitation{}))

	// an invitation id is single use
	resp = doJSON(t, app, fiber.MethodPost,
		fmt.Sprintf("/api/v1/invitations/%d/accept", invitationID), targetToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAcceptInvitationWrongTarget(t *testing.T) {
	app, _ := newTestApp(t)
	adminToken, _ := registerAndLogin(t, app, "Ada", "Lovelace", "ada@example.com")
	targetToken, targetID := registerAndLogin(t, app, "Grace", "Hopper", "grace@example.com")
	bystanderToken, _ := registerAndLogin(t, app, "Alan", "Turing", "alan@example.com")

	taskID := createTask(t, app, adminToken, "Joining")
	sendInvitation(t, app, adminToken, taskID, targetID, false)

	invitations := listInvitations(t, app, targetToken)
	require.Len(t, invitations, 1)

	// only the invited user can accept
	resp := doJSON(t, app, fiber.MethodPost,
		fmt.Sprintf("/api/v1/invitations/%d/accept", invitations[0].InvitationID), bystanderToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// accepting an id that never existed is also a 404
	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/invitations/9999/accept", targetToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeclineInvitation(t *testing.T) {
	app, db := newTestApp(t)
	adminToken, _ := registerAndLogin(t, app, "Ada", "Lovelace", "ada@example.com")
	targetToken, targetID := registerAndLogin(t, app, "Grace", "Hopper", "grace@example.com")
	bystanderToken, _ := registerAndLogin(t, app, "Alan", "Turing", "alan@example.com")

	taskID := createTask(t, app, adminToken, "Declined")
	sendInvitation(t, app, adminToken, taskID, targetID, false)

	invitations := listInvitations(t, app, targetToken)
	require.Len(t, invitations, 1)
	invitationID := invitations[0].InvitationID

	// an unrelated user cannot touch it
	resp := doJSON(t, app, fiber.MethodDelete,
		fmt.Sprintf("/api/v1/invitations/%d", invitationID), bystanderToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodDelete,
		fmt.Sprintf("/api/v1/invitations/%d", invitationID), targetToken, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// no membership was created
	var count int64
	require.NoError(t, db.Model(&models.Membership{}).
		Where("task_id = ? AND user_id = ?", taskID, targetID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithdrawInvitation(t *testing.T) {
	app, db := newTestApp(t)
	adminToken, _ := registerAndLogin(t, app, "Ada", "Lovelace", "ada@example.com")
	targetToken, targetID := registerAndLogin(t, app, "Grace", "Hopper", "grace@example.com")

	taskID := createTask(t, app, adminToken, "Withdrawn")
	sendInvitation(t, app, adminToken, taskID, targetID, false)

	invitations := listInvitations(t, app, targetToken)
	require.Len(t, invitations, 1)

	// the inviter can withdraw their own invitation
	resp := doJSON(t, app, fiber.MethodDelete,
		fmt.Sprintf("/api/v1/invitations/%d", invitations[0].InvitationID), adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Zero(t, countRows(t, db, &models.Invitation{}))

	// a fresh invitation for the same pair is allowed again
	sendInvitation(t, app, adminToken, taskID, targetID, false)
}
