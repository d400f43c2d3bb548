package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "tasktracker/controllers"
	"tasktracker/middleware"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authController := controller.NewAuthController(db, log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile))

	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	auth.Post("/register", authController.Register)
	auth.Post("/login", middleware.LoginRateLimiter(), authController.Login)

	protectedAuth := auth.Group("", middleware.Protected(db))
	protectedAuth.Get("/me", authController.GetCurrentUser)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	taskController := controller.NewTaskController(db, log.New(os.Stdout, "TASK: ", log.LstdFlags))
	subTaskController := controller.NewSubTaskController(db, log.New(os.Stdout, "SUBTASK: ", log.LstdFlags))
	invitationController := controller.NewInvitationController(db, log.New(os.Stdout, "INVITATION: ", log.LstdFlags))

	api := app.Group("/api/v1", middleware.Protected(db), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Task and membership routes
	task := api.Group("/tasks")
	task.Get("/", taskController.GetTasks)
	task.Post("/", taskController.AddTask)
	task.Put("/:taskId", taskController.EditTask)
	task.Delete("/:taskId", taskController.DeleteTask)
	task.Delete("/:taskId/leave", taskController.LeaveTask)
	task.Post("/:taskId/members", taskController.AddMember)
	task.Put("/:taskId/members/:userId", taskController.SetMemberAdmin)
	task.Delete("/:taskId/members/:userId", taskController.RemoveMember)

	// Sub-task routes
	task.Get("/:taskId/subtasks", subTaskController.GetSubTasks)
	task.Post("/:taskId/subtasks", subTaskController.AddSubTask)
	task.Delete("/:taskId/subtasks/:subTaskId", subTaskController.DeleteSubTask)
	task.Post("/:taskId/subtasks/:subTaskId/assignees", subTaskController.AssignUser)
	task.Delete("/:taskId/subtasks/:subTaskId/assignees/:userId", subTaskController.UnassignUser)
	task.Post("/:taskId/subtasks/:subTaskId/comments", subTaskController.AddComment)
	task.Delete("/:taskId/comments/:commentId", subTaskController.DeleteComment)

	// Invitation routes
	invitation := api.Group("/invitations")
	invitation.Get("/", invitationController.GetInvitations)
	invitation.Post("/", invitationController.SendInvitation)
	invitation.Post("/:invitationId/accept", invitationController.AcceptInvitation)
	invitation.Delete("/:invitationId", invitationController.DeclineInvitation)

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
