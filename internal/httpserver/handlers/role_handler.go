package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"auths/internal/service"
)

type roleReq struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func CreateRole(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		role, err := rbac.CreateRole(r.Context(), req.Name, req.Slug)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, role)
	}
}

func UpdateRole(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		role, err := rbac.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Name, req.Slug)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, role)
	}
}

func DeleteRole(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rbac.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]bool{"deleted": true})
	}
}

func ListRoles(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withPermissions := r.URL.Query().Get("withPermissions") == "true"
		rows, page, err := rbac.GetAllRoles(r.Context(), parsePagination(r), r.URL.Query().Get("keyword"), withPermissions)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"roles": rows, "pagination": page})
	}
}

func GetRole(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := rbac.GetRoleByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, role)
	}
}

type assignPermissionsReq struct {
	PermissionUUIDs []string `json:"permissionUuids"`
}

func AssignPermissionsToRole(rbac *service.RBACService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignPermissionsReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := rbac.AssignPermissionsToRole(r.Context(), chi.URLParam(r, "id"), req.PermissionUUIDs)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, res)
	}
}
