package service

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"auths/internal/apperr"
	"auths/internal/models"
)

func linkedPermissionUUIDs(t *testing.T, rbac *RBACService, roleID string) []string {
	t.Helper()
	detail, err := rbac.GetRoleByID(context.Background(), roleID)
	require.NoError(t, err)
	out := make([]string, 0, len(detail.Permissions))
	for _, p := range detail.Permissions {
		out = append(out, p.UUID)
	}
	sort.Strings(out)
	return out
}

func TestRoleCRUD(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	role, err := rbac.CreateRole(ctx, "Editor", "editor")
	require.NoError(t, err)
	require.NotEmpty(t, role.UUID)

	_, err = rbac.CreateRole(ctx, "Other", "editor")
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = rbac.CreateRole(ctx, "Bad", "no-dashes!")
	require.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// Self-collision on slug is allowed; renaming works.
	updated, err := rbac.UpdateRole(ctx, role.UUID, "Chief Editor", "editor")
	require.NoError(t, err)
	require.Equal(t, "Chief Editor", updated.Name)

	other, err := rbac.CreateRole(ctx, "Viewer", "viewer")
	require.NoError(t, err)
	_, err = rbac.UpdateRole(ctx, other.UUID, "", "editor")
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = rbac.UpdateRole(ctx, "missing", "X", "x")
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	bySlug, err := rbac.GetRoleBySlug(ctx, "viewer")
	require.NoError(t, err)
	require.Equal(t, other.UUID, bySlug.UUID)
	require.Empty(t, bySlug.Permissions)

	require.NoError(t, rbac.DeleteRole(ctx, other.UUID))
	_, err = rbac.GetRoleByID(ctx, other.UUID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPermissionCRUD(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	perm, err := rbac.CreatePermission(ctx, "Read", "read")
	require.NoError(t, err)

	_, err = rbac.CreatePermission(ctx, "Read Again", "read")
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	updated, err := rbac.UpdatePermission(ctx, perm.UUID, "Read All", "read_all")
	require.NoError(t, err)
	require.Equal(t, "read_all", updated.Slug)

	got, err := rbac.GetPermissionByID(ctx, perm.UUID)
	require.NoError(t, err)
	require.Equal(t, "Read All", got.Name)

	require.NoError(t, rbac.DeletePermission(ctx, perm.UUID))
	_, err = rbac.GetPermissionByID(ctx, perm.UUID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeletionGuards(t *testing.T) {
	db := newTestDB(t)
	lg := testLogger()
	rbac := NewRBACService(db, lg)
	creds := NewCredentialService(db, newTestConfig(), lg)
	ctx := context.Background()

	role, err := rbac.CreateRole(ctx, "Editor", "editor")
	require.NoError(t, err)
	perm, err := rbac.CreatePermission(ctx, "Read", "read")
	require.NoError(t, err)
	_, err = rbac.AssignPermissionsToRole(ctx, role.UUID, []string{perm.UUID})
	require.NoError(t, err)
	_, err = creds.SignUp(ctx, "a@x.com", "pw123456", role.UUID, nil)
	require.NoError(t, err)

	// Role held by a user cannot go away; its links stay intact.
	err = rbac.DeleteRole(ctx, role.UUID)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	require.Equal(t, []string{perm.UUID}, linkedPermissionUUIDs(t, rbac, role.UUID))

	// Linked permission cannot go away either.
	err = rbac.DeletePermission(ctx, perm.UUID)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	_, err = rbac.GetPermissionByID(ctx, perm.UUID)
	require.NoError(t, err)

	// Unlink, then both deletions succeed once the user moves off the role.
	_, err = rbac.AssignPermissionsToRole(ctx, role.UUID, []string{})
	require.NoError(t, err)
	require.NoError(t, rbac.DeletePermission(ctx, perm.UUID))

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "a@x.com").Update("role_uuid", nil).Error)
	require.NoError(t, rbac.DeleteRole(ctx, role.UUID))
}

func TestAssignPermissions_IdempotentAndConvergent(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	role, err := rbac.CreateRole(ctx, "Editor", "editor")
	require.NoError(t, err)
	var perms []string
	for _, slug := range []string{"read", "write", "publish"} {
		p, err := rbac.CreatePermission(ctx, slug, slug)
		require.NoError(t, err)
		perms = append(perms, p.UUID)
	}

	target := []string{perms[0], perms[1]}
	res, err := rbac.AssignPermissionsToRole(ctx, role.UUID, target)
	require.NoError(t, err)
	require.ElementsMatch(t, target, res.InsertedUUID)
	require.Empty(t, res.RemoveUUID)

	// Second identical call is a no-op and reports empty diffs.
	res, err = rbac.AssignPermissionsToRole(ctx, role.UUID, target)
	require.NoError(t, err)
	require.Empty(t, res.InsertedUUID)
	require.Empty(t, res.RemoveUUID)
	want := append([]string(nil), target...)
	sort.Strings(want)
	require.Equal(t, want, linkedPermissionUUIDs(t, rbac, role.UUID))

	// Partial overlap: untouched ids appear in neither diff list.
	res, err = rbac.AssignPermissionsToRole(ctx, role.UUID, []string{perms[1], perms[2]})
	require.NoError(t, err)
	require.Equal(t, []string{perms[2]}, res.InsertedUUID)
	require.Equal(t, []string{perms[0]}, res.RemoveUUID)

	// Convergence: the final linked set is exactly the target.
	want = []string{perms[1], perms[2]}
	sort.Strings(want)
	require.Equal(t, want, linkedPermissionUUIDs(t, rbac, role.UUID))

	// Empty target removes everything.
	res, err = rbac.AssignPermissionsToRole(ctx, role.UUID, []string{})
	require.NoError(t, err)
	require.Empty(t, res.InsertedUUID)
	require.ElementsMatch(t, []string{perms[1], perms[2]}, res.RemoveUUID)
	require.Empty(t, linkedPermissionUUIDs(t, rbac, role.UUID))
}

func TestAssignPermissions_UnknownIDs(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	role, err := rbac.CreateRole(ctx, "Editor", "editor")
	require.NoError(t, err)

	_, err = rbac.AssignPermissionsToRole(ctx, "missing-role", nil)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = rbac.AssignPermissionsToRole(ctx, role.UUID, []string{"missing-permission"})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAssignRolesToPermission_Symmetric(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	perm, err := rbac.CreatePermission(ctx, "Read", "read")
	require.NoError(t, err)
	editor, err := rbac.CreateRole(ctx, "Editor", "editor")
	require.NoError(t, err)
	viewer, err := rbac.CreateRole(ctx, "Viewer", "viewer")
	require.NoError(t, err)

	res, err := rbac.AssignRolesToPermission(ctx, perm.UUID, []string{editor.UUID, viewer.UUID})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{editor.UUID, viewer.UUID}, res.InsertedUUID)

	require.Equal(t, []string{perm.UUID}, linkedPermissionUUIDs(t, rbac, editor.UUID))
	require.Equal(t, []string{perm.UUID}, linkedPermissionUUIDs(t, rbac, viewer.UUID))

	res, err = rbac.AssignRolesToPermission(ctx, perm.UUID, []string{viewer.UUID})
	require.NoError(t, err)
	require.Empty(t, res.InsertedUUID)
	require.Equal(t, []string{editor.UUID}, res.RemoveUUID)
	require.Empty(t, linkedPermissionUUIDs(t, rbac, editor.UUID))
}

func TestScenario_EditorGetsRead(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	editor, err := rbac.CreateRole(ctx, "Editor", "editor")
	require.NoError(t, err)
	read, err := rbac.CreatePermission(ctx, "Read", "read")
	require.NoError(t, err)

	_, err = rbac.AssignPermissionsToRole(ctx, editor.UUID, []string{read.UUID})
	require.NoError(t, err)

	detail, err := rbac.GetRoleByID(ctx, editor.UUID)
	require.NoError(t, err)
	require.Len(t, detail.Permissions, 1)
	require.Equal(t, "read", detail.Permissions[0].Slug)

	res, err := rbac.AssignPermissionsToRole(ctx, editor.UUID, []string{})
	require.NoError(t, err)
	require.Equal(t, []string{read.UUID}, res.RemoveUUID)
	detail, err = rbac.GetRoleByID(ctx, editor.UUID)
	require.NoError(t, err)
	require.Empty(t, detail.Permissions)
}

func TestGetAllRoles_KeywordAndEnvelope(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	names := []string{"Editor", "Edit Lite", "Viewer", "Admin", "Auditor"}
	for i, n := range names {
		_, err := rbac.CreateRole(ctx, n, "slug_"+string(rune('a'+i)))
		require.NoError(t, err)
	}

	rows, page, err := rbac.GetAllRoles(ctx, Pagination{Limit: 2, Skip: 0}, "", false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.EqualValues(t, 5, page.TotalCount)
	require.Equal(t, 0, page.CurrentPage)
	require.Equal(t, 2, page.PageSize)
	require.Equal(t, 3, page.TotalPage)
	require.Nil(t, rows[0].Permissions)

	rows, page, err = rbac.GetAllRoles(ctx, Pagination{Limit: 2, Skip: 2}, "", false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 1, page.CurrentPage)

	// Case-insensitive prefix match.
	rows, page, err = rbac.GetAllRoles(ctx, Pagination{Limit: 10, Skip: 0}, "edit", false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.EqualValues(t, 2, page.TotalCount)

	// withPermissions resolves (possibly empty) lists for each row.
	rows, _, err = rbac.GetAllRoles(ctx, Pagination{Limit: 10, Skip: 0}, "edit", true)
	require.NoError(t, err)
	for _, row := range rows {
		require.NotNil(t, row.Permissions)
	}
}

func TestGetAllPermissions(t *testing.T) {
	db := newTestDB(t)
	rbac := NewRBACService(db, testLogger())
	ctx := context.Background()

	for _, slug := range []string{"read", "write"} {
		_, err := rbac.CreatePermission(ctx, slug, slug)
		require.NoError(t, err)
	}
	perms, page, err := rbac.GetAllPermissions(ctx, Pagination{Limit: 10, Skip: 0}, "re")
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.EqualValues(t, 1, page.TotalCount)
}
