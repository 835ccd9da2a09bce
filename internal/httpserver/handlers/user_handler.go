package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"auths/internal/service"
)

func ListUsers(users *service.UserService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, page, err := users.GetAllUsers(r.Context(), parsePagination(r))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"users": rows, "pagination": page})
	}
}
