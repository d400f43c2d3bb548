package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasktracker/models"
	"tasktracker/utils"
)

type TaskController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Perm   *Permissions
}

func NewTaskController(db *gorm.DB, logger *log.Logger) *TaskController {
	return &TaskController{
		DB:     db,
		Logger: logger,
		Perm:   NewPermissions(db),
	}
}

type CreateTaskRequest struct {
	Name        string     `json:"name" validate:"required,min=1"`
	Description string     `json:"description"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
}

type EditTaskRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
}

type TaskMemberResponse struct {
	UserID  uint   `json:"user_id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	IsAdmin bool   `json:"is_admin"`
}

type TaskResponse struct {
	TaskID      uint                 `json:"task_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	StartsAt    time.Time            `json:"starts_at"`
	EndsAt      *time.Time           `json:"ends_at,omitempty"`
	Status      string               `json:"status"`
	Members     []TaskMemberResponse `json:"members"`
}

// GetTasks lists every task the caller belongs to, with status and members
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "You do not have permission",
		})
	}

	var memberships []models.Membership
	if err := tc.DB.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		tc.Logger.Printf("Failed to list memberships: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tasks",
		})
	}

	taskIDs := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		taskIDs = append(taskIDs, m.TaskID)
	}

	var tasks []models.Task
	if len(taskIDs) > 0 {
		if err := tc.DB.Preload("Status").Preload("Members").Preload("Members.User").
			Where("id IN ?", taskIDs).Find(&tasks).Error; err != nil {
			tc.Logger.Printf("Failed to load tasks: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list tasks",
			})
		}
	}

	response := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		members := make([]TaskMemberResponse, 0, len(task.Members))
		for _, m := range task.Members {
			members = append(members, TaskMemberResponse{
				UserID:  m.UserID,
				Name:    m.User.Name,
				Surname: m.User.Surname,
				IsAdmin: m.IsAdmin,
			})
		}
		response = append(response, TaskResponse{
			TaskID:      task.ID,
			Name:        task.Name,
			Description: task.Description,
			StartsAt:    task.StartsAt,
			EndsAt:      task.EndsAt,
			Status:      task.Status.Name,
			Members:     members,
		})
	}

	return c.JSON(response)
}

// AddTask creates a task and its creator's admin membership in one
// transaction, so no task ever exists without an admin
func (tc *TaskController) AddTask(c *fiber.Ctx) error {
	userID, ok := CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "You do not have permission",
		})
	}

	var req CreateTaskRequest
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

	task := models.Task{
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    start,
		EndsAt:      req.End,
		StatusID:    models.StatusOpen,
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		membership := models.Membership{
			TaskID:  task.ID,
			UserID:  userID,
			IsAdmin: true,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		tc.Logger.Printf("Failed to create task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"task_id": task.ID,
	})
}

// EditTask applies a partial update; omitted fields keep their prior value
func (tc *TaskController) EditTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	if _, ok := tc.Perm.RequireTaskAdmin(c, uint(taskID)); !ok {
		return nil
	}

	var req EditTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var task models.Task
	if err := tc.DB.First(&task, taskID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task does not exist",
		})
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Start != nil {
		task.StartsAt = *req.Start
	}
	if req.End != nil {
		task.EndsAt = req.End
	}

	if err := tc.DB.Save(&task).Error; err != nil {
		tc.Logger.Printf("Failed to update task %d: %v", taskID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update task",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteTask removes the task and everything it owns in one transaction
func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	if _, ok := tc.Perm.RequireTaskAdmin(c, uint(taskID)); !ok {
		return nil
	}

	var task models.Task
	if err := tc.DB.First(&task, taskID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task does not exist",
		})
	}

	if err := tc.DB.Transaction(func(tx *gorm.DB) error {
		return deleteTaskCascade(tx, task.ID)
	}); err != nil {
		tc.Logger.Printf("Failed to delete task %d: %v", taskID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete task",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// deleteTaskCascade removes all dependents of a task and then the task
// itself. Dependents go first so the cascade can never leave orphans behind
// on a partial failure; the caller supplies the transaction. Deletes are
// unscoped: soft-deleted rows would keep holding the composite unique
// indexes and block the pair from ever being recreated.
func deleteTaskCascade(tx *gorm.DB, taskID uint) error {
	var subTaskIDs []uint
	if err := tx.Model(&models.SubTask{}).Where("task_id = ?", taskID).
		Pluck("id", &subTaskIDs).Error; err != nil {
		return err
	}

	if len(subTaskIDs) > 0 {
		if err := tx.Unscoped().Where("sub_task_id IN ?", subTaskIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("sub_task_id IN ?", subTaskIDs).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("task_id = ?", taskID).Delete(&models.SubTask{}).Error; err != nil {
			return err
		}
	}

	if err := tx.Unscoped().Where("task_id = ?", taskID).Delete(&models.Invitation{}).Error; err != nil {
		return err
	}
	if err := tx.Unscoped().Where("task_id = ?", taskID).Delete(&models.Membership{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Delete(&models.Task{}, taskID).Error
}
