package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasktracker/models"
	"tasktracker/utils"
)

type InvitationController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Perm   *Permissions
}

func NewInvitationController(db *gorm.DB, logger *log.Logger) *InvitationController {
	return &InvitationController{
		DB:     db,
		Logger: logger,
		Perm:   NewPermissions(db),
	}
}

type SendInvitationRequest struct {
	TaskID  uint `json:"task_id" validate:"required"`
	UserID  uint `json:"user_id" validate:"required"`
	IsAdmin bool `json:"is_admin"`
}

type InvitationResponse struct {
	InvitationID   uint   `json:"invitation_id"`
	TaskID         uint   `json:"task_id"`
	TaskName       string `json:"task_name"`
	AsAdmin        bool   `json:"as_admin"`
	InviterUserID  uint   `json:"inviter_user_id"`
	InviterName    string `json:"inviter_name"`
	InviterSurname string `json:"inviter_surname"`
}

// GetInvitations lists the caller's pending invitations with inviter and
// task display fields
func (ic *InvitationController) GetInvitations(c *fiber.Ctx) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "You do not have permission",
		})
	}

	var invitations []models.Invitation
	if err := ic.DB.Preload("Task").Preload("InviterUser").
		Where("invited_user_id = ?", userID).Find(&invitations).Error; err != nil {
		ic.Logger.Printf("Failed to list invitations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list invitations",
		})
	}

	response := make([]InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		response = append(response, InvitationResponse{
			InvitationID:   inv.ID,
			TaskID:         inv.TaskID,
			TaskName:       inv.Task.Name,
			AsAdmin:        inv.AsAdmin,
			InviterUserID:  inv.InviterUserID,
			InviterName:    inv.InviterUser.Name,
			InviterSurname: inv.InviterUser.Surname,
		})
	}

	return c.JSON(response)
}

// SendInvitation creates a pending invitation for a non-member, recording
// the proposed admin flag. The notification mail is best effort.
func (ic *InvitationController) SendInvitation(c *fiber.Ctx) error {
	var req SendInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	inviterID, ok := ic.Perm.RequireTaskAdmin(c, req.TaskID)
	if !ok {
		return nil
	}

	if ic.Perm.IsTaskMember(req.UserID, req.TaskID) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already in the task",
		})
	}

	var target models.User
	if err := ic.DB.First(&target, req.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User does not exist",
		})
	}

	var pending models.Invitation
	if err := ic.DB.Where("task_id = ? AND invited_user_id = ?", req.TaskID, req.UserID).
		First(&pending).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already invited to this task",
		})
	}

	invitation := models.Invitation{
		TaskID:        req.TaskID,
		InvitedUserID: req.UserID,
		InviterUserID: inviterID,
		AsAdmin:       req.IsAdmin,
	}
	if err := ic.DB.Create(&invitation).Error; err != nil {
		// Two admins inviting the same user at once both pass the pending
		// lookup; the unique index catches the second insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already invited to this task",
			})
		}
		ic.Logger.Printf("Failed to create invitation: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	inviter := c.Locals("user").(*models.User)
	var task models.Task
	if err := ic.DB.First(&task, req.TaskID).Error; err == nil {
		if err := utils.SendInvitationEmail(utils.InvitationMail{
			To:          target.Email,
			InviterName: inviter.Name + " " + inviter.Surname,
			TaskName:    task.Name,
			AsAdmin:     req.IsAdmin,
		}); err != nil {
			ic.Logger.Printf("Failed to send invitation mail: %v", err)
		}
	}

	return c.SendStatus(fiber.StatusCreated)
}

// AcceptInvitation turns a pending invitation into a membership. Deleting
// the invitation and creating the membership happen in one transaction, and
// the membership check runs again inside it so a race with a direct add
// cannot produce a duplicate pair.
func (ic *InvitationController) AcceptInvitation(c *fiber.Ctx) error {
	invitationID, err := c.ParamsInt("invitationId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invitation ID",
		})
	}

	userID, ok := CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "You do not have permission",
		})
	}

	var invitation models.Invitation
	if err := ic.DB.Where("id = ? AND invited_user_id = ?", invitationID, userID).
		First(&invitation).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation does not exist",
		})
	}

	if err := ic.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(&invitation).Error; err != nil {
			return err
		}
		if NewPermissions(tx).IsTaskMember(userID, invitation.TaskID) {
			// Already joined through another path; consuming the
			// invitation is all that is left to do
			return nil
		}
		return tx.Create(&models.Membership{
			TaskID:  invitation.TaskID,
			UserID:  userID,
			IsAdmin: invitation.AsAdmin,
		}).Error
	}); err != nil {
		ic.Logger.Printf("Failed to accept invitation %d: %v", invitationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept invitation",
		})
	}

	return c.SendStatus(fiber.StatusCreated)
}

// DeclineInvitation removes a pending invitation. The invited user declines,
// the inviter withdraws; both consume the invitation the same way.
func (ic *InvitationController) DeclineInvitation(c *fiber.Ctx) error {
	invitationID, err := c.ParamsInt("invitationId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invitation ID",
		})
	}

	userID, ok := CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "You do not have permission",
		})
	}

	var invitation models.Invitation
	if err := ic.DB.Where("id = ? AND (invited_user_id = ? OR inviter_user_id = ?)",
		invitationID, userID, userID).First(&invitation).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation does not exist",
		})
	}

	if err := ic.DB.Unscoped().Delete(&invitation).Error; err != nil {
		ic.Logger.Printf("Failed to decline invitation %d: %v", invitationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to decline invitation",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
