package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasktracker/models"
	"tasktracker/utils"
)

// errLastAdmin aborts a leave transaction that would leave members behind
// with no admin
var errLastAdmin = errors.New("task would lose its last admin")

type AddMemberRequest struct {
	UserID  uint `json:"user_id" validate:"required"`
	IsAdmin bool `json:"is_admin"`
}

type SetMemberAdminRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

// AddMember puts an existing user directly on the task
func (tc *TaskController) AddMember(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	if _, ok := tc.Perm.RequireTaskAdmin(c, uint(taskID)); !ok {
		return nil
	}

	var req AddMemberRequest
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

	if tc.Perm.IsTaskMember(req.UserID, uint(taskID)) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already in the task",
		})
	}

	var target models.User
	if err := tc.DB.First(&target, req.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User does not exist",
		})
	}

	membership := models.Membership{
		TaskID:  uint(taskID),
		UserID:  req.UserID,
		IsAdmin: req.IsAdmin,
	}
	if err := tc.DB.Create(&membership).Error; err != nil {
		// A racing duplicate slips past the pre-check and lands on the
		// unique index instead
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already in the task",
			})
		}
		tc.Logger.Printf("Failed to add member: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	return c.SendStatus(fiber.StatusCreated)
}

// RemoveMember removes another user from the task. Self-removal must go
// through LeaveTask so the admin-continuity rules apply.
func (tc *TaskController) RemoveMember(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}
	targetID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	actingID, ok := tc.Perm.RequireTaskAdmin(c, uint(taskID))
	if !ok {
		return nil
	}

	if actingID == uint(targetID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot remove yourself, use leave instead",
		})
	}

	var membership models.Membership
	if err := tc.DB.Where("task_id = ? AND user_id = ?", taskID, targetID).
		First(&membership).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User does not exist in this task",
		})
	}

	if err := tc.DB.Unscoped().Delete(&membership).Error; err != nil {
		tc.Logger.Printf("Failed to remove member: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove member",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// LeaveTask removes the caller's own membership. The sole remaining member
// takes the whole task down with them; an admin with co-members must hand
// admin over first. Count and admin checks run again inside the transaction
// so two racing leaves cannot both pass them.
func (tc *TaskController) LeaveTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	userID, ok := CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "You do not have permission",
		})
	}

	if !tc.Perm.IsTaskMember(userID, uint(taskID)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "You are not in this task",
		})
	}

	err = tc.DB.Transaction(func(tx *gorm.DB) error {
		perm := NewPermissions(tx)

		if perm.MemberCount(uint(taskID)) == 1 {
			return deleteTaskCascade(tx, uint(taskID))
		}

		if perm.WouldStripLastAdmin(uint(taskID), userID) {
			return errLastAdmin
		}

		return tx.Unscoped().
			Where("task_id = ? AND user_id = ?", taskID, userID).
			Delete(&models.Membership{}).Error
	})
	if errors.Is(err, errLastAdmin) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You have to give someone admin permission before leaving",
		})
	}
	if err != nil {
		tc.Logger.Printf("Failed to leave task %d: %v", taskID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to leave task",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetMemberAdmin flips the admin flag on a membership. A self-downgrade is
// refused while no other admin exists.
func (tc *TaskController) SetMemberAdmin(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}
	targetID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	actingID, ok := tc.Perm.RequireTaskAdmin(c, uint(taskID))
	if !ok {
		return nil
	}

	var req SetMemberAdminRequest
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

	// The guard and the write share one transaction so two admins racing to
	// downgrade themselves cannot both see the other as the remaining admin
	err = tc.DB.Transaction(func(tx *gorm.DB) error {
		perm := NewPermissions(tx)

		if actingID == uint(targetID) && !*req.IsAdmin &&
			!perm.AnotherAdminExists(uint(taskID), actingID) {
			return errLastAdmin
		}

		var membership models.Membership
		if err := tx.Where("task_id = ? AND user_id = ?", taskID, targetID).
			First(&membership).Error; err != nil {
			return err
		}

		membership.IsAdmin = *req.IsAdmin
		return tx.Save(&membership).Error
	})
	if errors.Is(err, errLastAdmin) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You have to give someone admin permission before this action",
		})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User does not exist in this task",
		})
	}
	if err != nil {
		tc.Logger.Printf("Failed to update member: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update member",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
