package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"auths/internal/apperr"
	"auths/internal/models"
)

// UserService is the read-side directory over registered users.
type UserService struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewUserService(db *gorm.DB, lg *zap.SugaredLogger) *UserService {
	return &UserService{db: db, lg: lg}
}

// GetAllUsers lists users with roles resolved in one batched query.
// Password hashes never leave this layer.
func (s *UserService) GetAllUsers(ctx context.Context, p Pagination) ([]models.User, PageInfo, error) {
	p = p.normalized()
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, PageInfo{}, apperr.Internal(err)
	}
	var users []models.User
	if err := db.Order("created_at ASC").Limit(p.Limit).Offset(p.Skip).Find(&users).Error; err != nil {
		return nil, PageInfo{}, apperr.Internal(err)
	}

	roleIDs := make([]string, 0, len(users))
	for _, u := range users {
		if u.RoleUUID != nil {
			roleIDs = append(roleIDs, *u.RoleUUID)
		}
	}
	if len(roleIDs) > 0 {
		var roles []models.Role
		if err := db.Where("uuid IN ?", dedupe(roleIDs)).Find(&roles).Error; err != nil {
			return nil, PageInfo{}, apperr.Internal(err)
		}
		byID := make(map[string]models.Role, len(roles))
		for _, r := range roles {
			byID[r.UUID] = r
		}
		for i := range users {
			if users[i].RoleUUID != nil {
				if r, ok := byID[*users[i].RoleUUID]; ok {
					role := r
					users[i].Role = &role
				}
			}
		}
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, newPageInfo(total, p), nil
}
