package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"tasktracker/models"
	"tasktracker/utils"
)

type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// AddComment lets any task member comment on a sub-task
func (sc *SubTaskController) AddComment(c *fiber.Ctx) error {
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

	userID, ok := sc.Perm.RequireTaskMember(c, uint(taskID))
	if !ok {
		return nil
	}

	var req AddCommentRequest
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

	comment := models.Comment{
		SubTaskID: subTask.ID,
		UserID:    userID,
		Text:      req.Text,
	}
	if err := sc.DB.Create(&comment).Error; err != nil {
		sc.Logger.Printf("Failed to create comment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create comment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"comment_id": comment.ID,
	})
}

// DeleteComment is allowed for the comment's author and for task admins
func (sc *SubTaskController) DeleteComment(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}
	commentID, err := c.ParamsInt("commentId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid comment ID",
		})
	}

	userID, ok := CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "You do not have permission",
		})
	}

	var comment models.Comment
	if err := sc.DB.Joins("JOIN sub_tasks ON sub_tasks.id = comments.sub_task_id").
		Where("comments.id = ? AND sub_tasks.task_id = ?", commentID, taskID).
		First(&comment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment does not exist",
		})
	}

	if comment.UserID != userID && !sc.Perm.IsTaskAdmin(userID, uint(taskID)) {
		logrus.WithFields(logrus.Fields{
			"event":      "permission_denied",
			"user_id":    userID,
			"comment_id": comment.ID,
		}).Warn("comment delete denied")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not have permission for this comment",
		})
	}

	if err := sc.DB.Unscoped().Delete(&comment).Error; err != nil {
		sc.Logger.Printf("Failed to delete comment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete comment",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
