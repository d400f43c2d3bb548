package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tasktracker/models"
)

// Permissions answers the membership questions every mutating operation asks
// before touching anything. The predicates always hit the database instead of
// caching: for in-transaction rechecks (last-admin races, cascade deletes)
// construct one over the transaction handle with NewPermissions(tx).
type Permissions struct {
	DB *gorm.DB
}

func NewPermissions(db *gorm.DB) *Permissions {
	return &Permissions{DB: db}
}

// IsTaskAdmin reports whether the user holds an admin membership on the task
func (p *Permissions) IsTaskAdmin(userID, taskID uint) bool {
	var count int64
	p.DB.Model(&models.Membership{}).
		Where("task_id = ? AND user_id = ? AND is_admin = ?", taskID, userID, true).
		Count(&count)
	return count > 0
}

// IsTaskMember reports whether the user holds any membership on the task
func (p *Permissions) IsTaskMember(userID, taskID uint) bool {
	var count int64
	p.DB.Model(&models.Membership{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count)
	return count > 0
}

// AnotherAdminExists reports whether the task has an admin other than the
// given user
func (p *Permissions) AnotherAdminExists(taskID, excludedUserID uint) bool {
	var count int64
	p.DB.Model(&models.Membership{}).
		Where("task_id = ? AND user_id <> ? AND is_admin = ?", taskID, excludedUserID, true).
		Count(&count)
	return count > 0
}

// WouldStripLastAdmin is true when removing or downgrading the user would
// leave the task's remaining members without any admin
func (p *Permissions) WouldStripLastAdmin(taskID, userID uint) bool {
	if !p.IsTaskAdmin(userID, taskID) {
		return false
	}
	return !p.AnotherAdminExists(taskID, userID)
}

// MemberCount returns the number of memberships on the task
func (p *Permissions) MemberCount(taskID uint) int64 {
	var count int64
	p.DB.Model(&models.Membership{}).Where("task_id = ?", taskID).Count(&count)
	return count
}

// CurrentUserID pulls the acting user resolved by the auth middleware.
// A missing or zero id means no permission, never a panic.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}

// RequireTaskAdmin combines acting-user resolution with the admin check.
// When it returns false a 403 response has already been written and the
// handler must bail out before mutating anything.
func (p *Permissions) RequireTaskAdmin(c *fiber.Ctx, taskID uint) (uint, bool) {
	userID, ok := CurrentUserID(c)
	if !ok || !p.IsTaskAdmin(userID, taskID) {
		logrus.WithFields(logrus.Fields{
			"event":   "permission_denied",
			"user_id": userID,
			"task_id": taskID,
			"path":    c.Path(),
		}).Warn("admin permission denied")
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not have permission for this task",
		})
		return 0, false
	}
	return userID, true
}

// RequireTaskMember is the membership-gated variant of RequireTaskAdmin
func (p *Permissions) RequireTaskMember(c *fiber.Ctx, taskID uint) (uint, bool) {
	userID, ok := CurrentUserID(c)
	if !ok || !p.IsTaskMember(userID, taskID) {
		logrus.WithFields(logrus.Fields{
			"event":   "permission_denied",
			"user_id": userID,
			"task_id": taskID,
			"path":    c.Path(),
		}).Warn("member permission denied")
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not have permission for this task",
		})
		return 0, false
	}
	return userID, true
}
