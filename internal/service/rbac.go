package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"auths/internal/apperr"
	"auths/internal/models"
)

// RBACService manages roles, permissions, and the links between them.
type RBACService struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewRBACService(db *gorm.DB, lg *zap.SugaredLogger) *RBACService {
	return &RBACService{db: db, lg: lg}
}

// RoleDetail is a role joined with its resolved permission list. No
// ordering of the permission list is guaranteed.
type RoleDetail struct {
	models.Role
	Permissions []models.Permission `json:"permissions"`
}

// RoleRow is a role listing entry; the permission list is present only
// when the caller asked for it.
type RoleRow struct {
	models.Role
	Permissions []models.Permission `json:"permissions,omitempty"`
}

// ReconcileResult reports the set differences a reconciliation applied.
type ReconcileResult struct {
	InsertedUUID []string `json:"insertedUuid"`
	RemoveUUID   []string `json:"removeUuid"`
}

func (s *RBACService) CreateRole(ctx context.Context, name, slug string) (*models.Role, error) {
	if !validSlug(slug) {
		return nil, apperr.BadRequest("invalid slug")
	}
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Role{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if count > 0 {
		return nil, apperr.Conflict("role slug already exists")
	}
	role := models.Role{UUID: newUUID(), Name: name, Slug: slug}
	if err := db.Create(&role).Error; err != nil {
		return nil, dbErr(err, "role slug already exists")
	}
	return &role, nil
}

func (s *RBACService) UpdateRole(ctx context.Context, id, name, slug string) (*models.Role, error) {
	db := s.db.WithContext(ctx)
	var role models.Role
	if err := db.First(&role, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role not found")
		}
		return nil, apperr.Internal(err)
	}
	if slug != "" && slug != role.Slug {
		if !validSlug(slug) {
			return nil, apperr.BadRequest("invalid slug")
		}
		var count int64
		if err := db.Model(&models.Role{}).Where("slug = ? AND uuid <> ?", slug, id).Count(&count).Error; err != nil {
			return nil, apperr.Internal(err)
		}
		if count > 0 {
			return nil, apperr.Conflict("role slug already exists")
		}
		role.Slug = slug
	}
	if name != "" {
		role.Name = name
	}
	if err := db.Save(&role).Error; err != nil {
		return nil, dbErr(err, "role slug already exists")
	}
	var fresh models.Role
	if err := db.First(&fresh, "uuid = ?", id).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return &fresh, nil
}

// DeleteRole refuses while any user still holds the role; a permitted
// deletion removes the role's permission links in the same transaction.
func (s *RBACService) DeleteRole(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	var role models.Role
	if err := db.First(&role, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("role not found")
		}
		return apperr.Internal(err)
	}
	var users int64
	if err := db.Model(&models.User{}).Where("role_uuid = ?", id).Count(&users).Error; err != nil {
		return apperr.Internal(err)
	}
	if users > 0 {
		return apperr.Conflict("role is assigned to users")
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_uuid = ?", id).Delete(&models.RolePermissionLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, "uuid = ?", id).Error
	})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *RBACService) CreatePermission(ctx context.Context, name, slug string) (*models.Permission, error) {
	if !validSlug(slug) {
		return nil, apperr.BadRequest("invalid slug")
	}
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Permission{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if count > 0 {
		return nil, apperr.Conflict("permission slug already exists")
	}
	perm := models.Permission{UUID: newUUID(), Name: name, Slug: slug}
	if err := db.Create(&perm).Error; err != nil {
		return nil, dbErr(err, "permission slug already exists")
	}
	return &perm, nil
}

func (s *RBACService) UpdatePermission(ctx context.Context, id, name, slug string) (*models.Permission, error) {
	db := s.db.WithContext(ctx)
	var perm models.Permission
	if err := db.First(&perm, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("permission not found")
		}
		return nil, apperr.Internal(err)
	}
	if slug != "" && slug != perm.Slug {
		if !validSlug(slug) {
			return nil, apperr.BadRequest("invalid slug")
		}
		var count int64
		if err := db.Model(&models.Permission{}).Where("slug = ? AND uuid <> ?", slug, id).Count(&count).Error; err != nil {
			return nil, apperr.Internal(err)
		}
		if count > 0 {
			return nil, apperr.Conflict("permission slug already exists")
		}
		perm.Slug = slug
	}
	if name != "" {
		perm.Name = name
	}
	if err := db.Save(&perm).Error; err != nil {
		return nil, dbErr(err, "permission slug already exists")
	}
	var fresh models.Permission
	if err := db.First(&fresh, "uuid = ?", id).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return &fresh, nil
}

// DeletePermission refuses while any role still links the permission.
func (s *RBACService) DeletePermission(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	var perm models.Permission
	if err := db.First(&perm, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("permission not found")
		}
		return apperr.Internal(err)
	}
	var links int64
	if err := db.Model(&models.RolePermissionLink{}).Where("permission_uuid = ?", id).Count(&links).Error; err != nil {
		return apperr.Internal(err)
	}
	if links > 0 {
		return apperr.Conflict("permission is assigned to roles")
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_uuid = ?", id).Delete(&models.RolePermissionLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Permission{}, "uuid = ?", id).Error
	})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// GetAllRoles lists roles with the pagination envelope. Keyword is a
// case-insensitive prefix match on name. Permission lists are resolved in
// two batched queries only when withPermissions is set.
func (s *RBACService) GetAllRoles(ctx context.Context, p Pagination, keyword string, withPermissions bool) ([]RoleRow, PageInfo, error) {
	p = p.normalized()
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Role{})
	if keyword != "" {
		q = q.Where("LOWER(name) LIKE ?", strings.ToLower(keyword)+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, PageInfo{}, apperr.Internal(err)
	}
	var roles []models.Role
	if err := q.Order("created_at ASC").Limit(p.Limit).Offset(p.Skip).Find(&roles).Error; err != nil {
		return nil, PageInfo{}, apperr.Internal(err)
	}

	rows := make([]RoleRow, 0, len(roles))
	if !withPermissions {
		for _, r := range roles {
			rows = append(rows, RoleRow{Role: r})
		}
		return rows, newPageInfo(total, p), nil
	}

	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.UUID)
	}
	byRole, err := permissionsByRole(db, ids)
	if err != nil {
		return nil, PageInfo{}, apperr.Internal(err)
	}
	for _, r := range roles {
		perms := byRole[r.UUID]
		if perms == nil {
			perms = []models.Permission{}
		}
		rows = append(rows, RoleRow{Role: r, Permissions: perms})
	}
	return rows, newPageInfo(total, p), nil
}

// GetAllPermissions lists permissions with the pagination envelope.
func (s *RBACService) GetAllPermissions(ctx context.Context, p Pagination, keyword string) ([]models.Permission, PageInfo, error) {
	p = p.normalized()
	q := s.db.WithContext(ctx).Model(&models.Permission{})
	if keyword != "" {
		q = q.Where("LOWER(name) LIKE ?", strings.ToLower(keyword)+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, PageInfo{}, apperr.Internal(err)
	}
	var perms []models.Permission
	if err := q.Order("created_at ASC").Limit(p.Limit).Offset(p.Skip).Find(&perms).Error; err != nil {
		return nil, PageInfo{}, apperr.Internal(err)
	}
	return perms, newPageInfo(total, p), nil
}

func (s *RBACService) GetRoleByID(ctx context.Context, id string) (*RoleDetail, error) {
	return s.roleDetail(ctx, "uuid = ?", id, "role not found")
}

func (s *RBACService) GetRoleBySlug(ctx context.Context, slug string) (*RoleDetail, error) {
	return s.roleDetail(ctx, "slug = ?", slug, "role not found")
}

func (s *RBACService) roleDetail(ctx context.Context, cond, arg, missing string) (*RoleDetail, error) {
	db := s.db.WithContext(ctx)
	var role models.Role
	if err := db.First(&role, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(missing)
		}
		return nil, apperr.Internal(err)
	}
	perms, err := permissionsForRole(db, role.UUID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &RoleDetail{Role: role, Permissions: perms}, nil
}

func (s *RBACService) GetPermissionByID(ctx context.Context, id string) (*models.Permission, error) {
	var perm models.Permission
	if err := s.db.WithContext(ctx).First(&perm, "uuid = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("permission not found")
		}
		return nil, apperr.Internal(err)
	}
	return &perm, nil
}

// AssignPermissionsToRole synchronizes a role's linked permission set to
// exactly target. Ids in both the current and target sets are untouched
// and reported in neither list; the call is idempotent.
func (s *RBACService) AssignPermissionsToRole(ctx context.Context, roleID string, target []string) (*ReconcileResult, error) {
	db := s.db.WithContext(ctx)
	var role models.Role
	if err := db.First(&role, "uuid = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role not found")
		}
		return nil, apperr.Internal(err)
	}
	target = dedupe(target)
	if err := s.ensureAllExist(db, &models.Permission{}, target, "permission not found"); err != nil {
		return nil, err
	}

	result := &ReconcileResult{InsertedUUID: []string{}, RemoveUUID: []string{}}
	err := db.Transaction(func(tx *gorm.DB) error {
		var links []models.RolePermissionLink
		if err := tx.Where("role_uuid = ?", roleID).Find(&links).Error; err != nil {
			return err
		}
		current := make(map[string]bool, len(links))
		for _, l := range links {
			current[l.PermissionUUID] = true
		}
		want := make(map[string]bool, len(target))
		for _, id := range target {
			want[id] = true
			if !current[id] {
				result.InsertedUUID = append(result.InsertedUUID, id)
			}
		}
		for _, l := range links {
			if !want[l.PermissionUUID] {
				result.RemoveUUID = append(result.RemoveUUID, l.PermissionUUID)
			}
		}
		for _, id := range result.InsertedUUID {
			if err := tx.Create(&models.RolePermissionLink{
				UUID:           newUUID(),
				RoleUUID:       roleID,
				PermissionUUID: id,
			}).Error; err != nil {
				return err
			}
		}
		if len(result.RemoveUUID) > 0 {
			if err := tx.Where("role_uuid = ? AND permission_uuid IN ?", roleID, result.RemoveUUID).
				Delete(&models.RolePermissionLink{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, dbErr(err, "permission already linked")
	}
	return result, nil
}

// AssignRolesToPermission is the symmetric reconciliation: it synchronizes
// the set of roles linked to one permission.
func (s *RBACService) AssignRolesToPermission(ctx context.Context, permissionID string, target []string) (*ReconcileResult, error) {
	db := s.db.WithContext(ctx)
	var perm models.Permission
	if err := db.First(&perm, "uuid = ?", permissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("permission not found")
		}
		return nil, apperr.Internal(err)
	}
	target = dedupe(target)
	if err := s.ensureAllExist(db, &models.Role{}, target, "role not found"); err != nil {
		return nil, err
	}

	result := &ReconcileResult{InsertedUUID: []string{}, RemoveUUID: []string{}}
	err := db.Transaction(func(tx *gorm.DB) error {
		var links []models.RolePermissionLink
		if err := tx.Where("permission_uuid = ?", permissionID).Find(&links).Error; err != nil {
			return err
		}
		current := make(map[string]bool, len(links))
		for _, l := range links {
			current[l.RoleUUID] = true
		}
		want := make(map[string]bool, len(target))
		for _, id := range target {
			want[id] = true
			if !current[id] {
				result.InsertedUUID = append(result.InsertedUUID, id)
			}
		}
		for _, l := range links {
			if !want[l.RoleUUID] {
				result.RemoveUUID = append(result.RemoveUUID, l.RoleUUID)
			}
		}
		for _, id := range result.InsertedUUID {
			if err := tx.Create(&models.RolePermissionLink{
				UUID:           newUUID(),
				RoleUUID:       id,
				PermissionUUID: permissionID,
			}).Error; err != nil {
				return err
			}
		}
		if len(result.RemoveUUID) > 0 {
			if err := tx.Where("permission_uuid = ? AND role_uuid IN ?", permissionID, result.RemoveUUID).
				Delete(&models.RolePermissionLink{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, dbErr(err, "role already linked")
	}
	return result, nil
}

func (s *RBACService) ensureAllExist(db *gorm.DB, model any, ids []string, missing string) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := db.Model(model).Where("uuid IN ?", ids).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count != int64(len(ids)) {
		return apperr.NotFound(missing)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func permissionsForRole(db *gorm.DB, roleUUID string) ([]models.Permission, error) {
	byRole, err := permissionsByRole(db, []string{roleUUID})
	if err != nil {
		return nil, err
	}
	perms := byRole[roleUUID]
	if perms == nil {
		perms = []models.Permission{}
	}
	return perms, nil
}

// permissionsByRole resolves permission lists for a set of roles in two
// queries: links, then the referenced permissions.
func permissionsByRole(db *gorm.DB, roleUUIDs []string) (map[string][]models.Permission, error) {
	out := make(map[string][]models.Permission, len(roleUUIDs))
	if len(roleUUIDs) == 0 {
		return out, nil
	}
	var links []models.RolePermissionLink
	if err := db.Where("role_uuid IN ?", roleUUIDs).Find(&links).Error; err != nil {
		return nil, err
	}
	permIDs := make([]string, 0, len(links))
	for _, l := range links {
		permIDs = append(permIDs, l.PermissionUUID)
	}
	if len(permIDs) == 0 {
		return out, nil
	}
	var perms []models.Permission
	if err := db.Where("uuid IN ?", dedupe(permIDs)).Find(&perms).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Permission, len(perms))
	for _, p := range perms {
		byID[p.UUID] = p
	}
	for _, l := range links {
		if p, ok := byID[l.PermissionUUID]; ok {
			out[l.RoleUUID] = append(out[l.RoleUUID], p)
		}
	}
	return out, nil
}
