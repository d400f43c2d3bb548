package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasktracker/models"
	"tasktracker/utils"
)

type AssignUserRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// AssignUser puts a task member on a sub-task
func (sc *SubTaskController) AssignUser(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}
	subTaskID, err := c.ParamsInt("subTaskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sub-task ID",
		})
	}

	if _, ok := sc.Perm.RequireTaskAdmin(c, uint(taskID)); !ok {
		return nil
	}

	var req AssignUserRequest
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

	var subTask models.SubTask
	if err := sc.DB.Where("id = ? AND task_id = ?", subTaskID, taskID).
		First(&subTask).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sub-task does not exist",
		})
	}

	// Only members of the parent task can be assigned
	if !sc.Perm.IsTaskMember(req.UserID, uint(taskID)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User does not exist in this task",
		})
	}

	var existing models.Assignment
	if err := sc.DB.Where("sub_task_id = ? AND user_id = ?", subTask.ID, req.UserID).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already in this sub-task",
		})
	}

	assignment := models.Assignment{
		SubTaskID: subTask.ID,
		UserID:    req.UserID,
	}
	if err := sc.DB.Create(&assignment).Error; err != nil {
		// A racing duplicate lands on the unique index rather than the
		// pre-check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already in this sub-task",
			})
		}
		sc.Logger.Printf("Failed to assign user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to assign user",
		})
	}

	return c.SendStatus(fiber.StatusCreated)
}

// UnassignUser removes a user from a sub-task
func (sc *SubTaskController) UnassignUser(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}
	subTaskID, err := c.ParamsInt("subTaskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sub-task ID",
		})
	}
	targetID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	if _, ok := sc.Perm.RequireTaskAdmin(c, uint(taskID)); !ok {
		return nil
	}

	var assignment models.Assignment
	if err := sc.DB.Joins("JOIN sub_tasks ON sub_tasks.id = assignments.sub_task_id").
		Where("assignments.sub_task_id = ? AND assignments.user_id = ? AND sub_tasks.task_id = ?",
			subTaskID, targetID, taskID).
		First(&assignment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User is not in this sub-task",
		})
	}

	if err := sc.DB.Unscoped().Delete(&assignment).Error; err != nil {
		sc.Logger.Printf("Failed to unassign user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unassign user",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
