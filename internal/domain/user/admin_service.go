// internal/domain/user/admin_service.go
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/listing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DataCleaner removes data owned by a user inside the deleting transaction.
// A non-nil func it returns runs once that transaction has committed.
type DataCleaner interface {
	DeleteForUser(tx *gorm.DB, userID uint) (func(ctx context.Context), error)
}

func userColumn(name string) clause.Column {
	return clause.Column{Table: "users", Name: name}
}

// Schema lists users by email and name.
var Schema = listing.MustSchema(userColumn("id"),
	map[listing.Field]clause.Column{
		listing.FieldEmail:     userColumn("email"),
		listing.FieldFirstName: userColumn("first_name"),
		listing.FieldLastName:  userColumn("last_name"),
		listing.FieldCreatedAt: userColumn("created_at"),
		listing.FieldUpdatedAt: userColumn("updated_at"),
	},
	listing.FieldEmail, listing.FieldFirstName, listing.FieldLastName,
)

// AdminService handles admin user management operations
type AdminService struct {
	db       *gorm.DB
	log      *logrus.Logger
	cleaners []DataCleaner
}

// NewAdminService creates a new admin user service. Cleaners run in order
// before the user row is deleted.
func NewAdminService(db *gorm.DB, log *logrus.Logger, cleaners ...DataCleaner) *AdminService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AdminService{
		db:       db,
		log:      log,
		cleaners: cleaners,
	}
}

// UserFilter narrows the user list by role and activity.
type UserFilter struct {
	Role   string `form:"role" binding:"omitempty,oneof=admin user all"`
	Active *bool  `form:"active"`
}

// UserStatusUpdateRequest represents user status update data
type UserStatusUpdateRequest struct {
	IsActive *bool  `json:"is_active" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// UserAdminToggleRequest represents admin status toggle data
type UserAdminToggleRequest struct {
	IsAdmin *bool  `json:"is_admin" binding:"required"`
	Reason  string `json:"reason,omitempty"`
}

// ListUsers returns a page of users.
func (s *AdminService) ListUsers(ctx context.Context, c listing.Criteria, f UserFilter) (listing.Page[User], error) {
	query := s.db.WithContext(ctx).Model(&User{})

	switch f.Role {
	case "admin":
		query = query.Where("users.is_admin = ?", true)
	case "user":
		query = query.Where("users.is_admin = ?", false)
	}
	if f.Active != nil {
		query = query.Where("users.is_active = ?", *f.Active)
	}

	page, err := listing.FindPage[User](query, Schema, c)
	if err != nil {
		return listing.Page[User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	return page, nil
}

// GetUser returns a user regardless of status.
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*User, error) {
	return findUser(s.db.WithContext(ctx), userID)
}

// UpdateStatus activates or deactivates a user.
func (s *AdminService) UpdateStatus(ctx context.Context, adminID, userID uint, req *UserStatusUpdateRequest) (*User, error) {
	if req.IsActive == nil {
		return nil, apperror.Validation("is_active is required")
	}
	if adminID == userID && !*req.IsActive {
		return nil, apperror.Validation("you cannot deactivate your own account")
	}

	user, err := s.update(ctx, userID, "is_active", *req.IsActive)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"admin_id":  adminID,
		"user_id":   userID,
		"is_active": *req.IsActive,
		"reason":    req.Reason,
	}).Info("user status changed")
	return user, nil
}

// SetAdmin grants or revokes admin rights.
func (s *AdminService) SetAdmin(ctx context.Context, adminID, userID uint, req *UserAdminToggleRequest) (*User, error) {
	if req.IsAdmin == nil {
		return nil, apperror.Validation("is_admin is required")
	}
	if adminID == userID && !*req.IsAdmin {
		return nil, apperror.Validation("you cannot revoke your own admin rights")
	}

	user, err := s.update(ctx, userID, "is_admin", *req.IsAdmin)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"is_admin": *req.IsAdmin,
		"reason":   req.Reason,
	}).Info("user admin flag changed")
	return user, nil
}

// DeleteUser removes a user together with their reviews, cart and favorites
// in one transaction.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID uint) error {
	if adminID == userID {
		return apperror.Validation("you cannot delete your own account")
	}

	var afterCommit []func(ctx context.Context)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}

		for _, cleaner := range s.cleaners {
			after, err := cleaner.DeleteForUser(tx, user.ID)
			if err != nil {
				return err
			}
			if after != nil {
				afterCommit = append(afterCommit, after)
			}
		}

		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, after := range afterCommit {
		after(ctx)
	}

	s.log.WithFields(logrus.Fields{
		"admin_id": adminID,
		"user_id":  userID,
	}).Info("user deleted")
	return nil
}

func (s *AdminService) update(ctx context.Context, userID uint, column string, value bool) (*User, error) {
	db := s.db.WithContext(ctx)

	user, err := findUser(db, userID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(user).Update(column, value).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return findUser(db, userID)
}

func findUser(db *gorm.DB, userID uint) (*User, error) {
	var user User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
