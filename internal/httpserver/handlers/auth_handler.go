package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"auths/internal/auth"
	"auths/internal/models"
	"auths/internal/service"
)

type signUpReq struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	RoleUUID string      `json:"roleUuid,omitempty"`
	Extra    models.JSON `json:"otherData,omitempty"`
}

func SignUp(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u, err := creds.SignUp(r.Context(), req.Email, req.Password, req.RoleUUID, req.Extra)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues a one-time login token for the password-variant flow.
func Login(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		grant, err := creds.IssueLoginToken(r.Context(), req.Email, req.Password)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, grant)
	}
}

// AdminLogin issues a JWT for super-admin console access.
func AdminLogin(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess, err := creds.IssueJWT(r.Context(), req.Email, req.Password)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, sess)
	}
}

type forgotPasswordReq struct {
	Email   string `json:"email"`
	Answer1 string `json:"answer1"`
	Answer2 string `json:"answer2"`
}

func ForgotPassword(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		grant, err := creds.InitiateForgotPassword(r.Context(), req.Email, req.Answer1, req.Answer2)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, grant)
	}
}

type resetPasswordReq struct {
	Token       string `json:"token"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

func ResetPassword(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		msg, err := creds.ResetPassword(r.Context(), req.Token, req.Email, req.NewPassword)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]string{"message": msg})
	}
}

type updatePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func UpdatePassword(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := creds.UpdatePassword(r.Context(), auth.Subject(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]string{"message": "password updated"})
	}
}

type securityQuestionReq struct {
	CurrentPassword string `json:"currentPassword,omitempty"`
	Question1       int    `json:"question1"`
	Answer1         string `json:"answer1"`
	Question2       int    `json:"question2"`
	Answer2         string `json:"answer2"`
}

func SetSecurityQuestion(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req securityQuestionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err := creds.SetInitialSecurityQuestion(r.Context(), auth.Subject(r.Context()),
			req.Question1, req.Answer1, req.Question2, req.Answer2)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]string{"message": "security questions configured"})
	}
}

func UpdateSecurityQuestion(creds *service.CredentialService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req securityQuestionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err := creds.UpdateSecurityQuestion(r.Context(), auth.Subject(r.Context()), req.CurrentPassword,
			req.Question1, req.Answer1, req.Question2, req.Answer2)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]string{"message": "security questions updated"})
	}
}
