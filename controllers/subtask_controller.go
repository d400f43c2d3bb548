package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasktracker/models"
	"tasktracker/utils"
)

type SubTaskController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Perm   *Permissions
}

func NewSubTaskController(db *gorm.DB, logger *log.Logger) *SubTaskController {
	return &SubTaskController{
		DB:     db,
		Logger: logger,
		Perm:   NewPermissions(db),
	}
}

type CreateSubTaskRequest struct {
	Name        string     `json:"name" validate:"required,min=1"`
	Description string     `json:"description"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
}

// GetSubTasks lists the sub-tasks of a task with their assignments and
// comments, for any task member
func (sc *SubTaskController) GetSubTasks(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	if _, ok := sc.Perm.RequireTaskMember(c, uint(taskID)); !ok {
		return nil
	}

	var subTasks []models.SubTask
	if err := sc.DB.Preload("Status").Preload("Assignments").Preload("Comments").
		Where("task_id = ?", taskID).Find(&subTasks).Error; err != nil {
		sc.Logger.Printf("Failed to list sub-tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list sub-tasks",
		})
	}

	return c.JSON(subTasks)
}

// AddSubTask creates a sub-task under the task with the default open status
func (sc *SubTaskController) AddSubTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	if _, ok := sc.Perm.RequireTaskAdmin(c, uint(taskID)); !ok {
		return nil
	}

	var req CreateSubTaskRequest
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

	start := time.Now()
	if req.Start != nil {
		start = *req.Start
	}

	subTask := models.SubTask{
		TaskID:      uint(taskID),
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    start,
		EndsAt:      req.End,
		StatusID:    models.StatusOpen,
	}

	if err := sc.DB.Create(&subTask).Error; err != nil {
		sc.Logger.Printf("Failed to create sub-task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create sub-task",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sub_task_id": subTask.ID,
	})
}

// DeleteSubTask removes the sub-task with its assignments and comments in
// one transaction
func (sc *SubTaskController) DeleteSubTask(c *fiber.Ctx) error {
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

	var subTask models.SubTask
	if err := sc.DB.Where("id = ? AND task_id = ?", subTaskID, taskID).
		First(&subTask).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sub-task does not exist",
		})
	}

	if err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("sub_task_id = ?", subTask.ID).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("sub_task_id = ?", subTask.ID).
			Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&subTask).Error
	}); err != nil {
		sc.Logger.Printf("Failed to delete sub-task %d: %v", subTaskID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete sub-task",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
