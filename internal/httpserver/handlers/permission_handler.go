package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"auths/internal/service"
)

func CreatePermission(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		perm, err := rbac.CreatePermission(r.Context(), req.Name, req.Slug)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, perm)
	}
}

func UpdatePermission(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		perm, err := rbac.UpdatePermission(r.Context(), chi.URLParam(r, "id"), req.Name, req.Slug)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, perm)
	}
}

func DeletePermission(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rbac.DeletePermission(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]bool{"deleted": true})
	}
}

func ListPermissions(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perms, page, err := rbac.GetAllPermissions(r.Context(), parsePagination(r), r.URL.Query().Get("keyword"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"permissions": perms, "pagination": page})
	}
}

func GetPermission(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perm, err := rbac.GetPermissionByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, perm)
	}
}

type assignRolesReq struct {
	RoleUUIDs []string `json:"roleUuids"`
}

func AssignRolesToPermission(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignRolesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := rbac.AssignRolesToPermission(r.Context(), chi.URLParam(r, "id"), req.RoleUUIDs)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, res)
	}
}
