package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"auths/internal/apperr"
	"auths/internal/auth"
	"auths/internal/config"
	"auths/internal/models"
)

// CredentialService owns sign-up, the two login variants, JWT verification,
// and the security-question / password-reset lifecycle.
type CredentialService struct {
	db  *gorm.DB
	cfg *config.Config
	lg  *zap.SugaredLogger
}

func NewCredentialService(db *gorm.DB, cfg *config.Config, lg *zap.SugaredLogger) *CredentialService {
	return &CredentialService{db: db, cfg: cfg, lg: lg}
}

// TokenGrant is the result of issuing a one-time login or reset token.
type TokenGrant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
}

// AdminSession is the result of the privileged JWT login.
type AdminSession struct {
	UUID     string `json:"uuid"`
	JWTToken string `json:"jwtToken"`
}

// SignUp creates a user. An empty roleUUID leaves the user without a role
// assignment. The returned user never carries the password hash.
func (s *CredentialService) SignUp(ctx context.Context, email, password, roleUUID string, extra models.JSON) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.BadRequest("email and password required")
	}
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if count > 0 {
		return nil, apperr.Conflict("email already registered")
	}

	var rolePtr *string
	if roleUUID != "" {
		var role models.Role
		if err := db.First(&role, "uuid = ?", roleUUID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("role not found")
			}
			return nil, apperr.Internal(err)
		}
		rolePtr = &role.UUID
	}

	hash, err := auth.HashPassword(password, s.cfg.HashRounds)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := models.User{
		UUID:         newUUID(),
		Email:        email,
		PasswordHash: hash,
		RoleUUID:     rolePtr,
		OtherData:    extra,
	}
	// The unique index on email is the authoritative duplicate check; the
	// count above is just the friendly fast path.
	if err := db.Create(&u).Error; err != nil {
		return nil, dbErr(err, "email already registered")
	}
	u.PasswordHash = ""
	return &u, nil
}

// IssueLoginToken authenticates by password and mints a fresh one-time
// login token, retiring whatever token was active before it. Unknown email
// and wrong password fail identically.
func (s *CredentialService) IssueLoginToken(ctx context.Context, email, password string) (*TokenGrant, error) {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if auth.CheckPassword(u.PasswordHash, password) != nil {
		return nil, apperr.NotFound("invalid credentials")
	}

	token, err := randomToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := time.Now()
	expiresAt := now.Add(s.cfg.LoginTokenTTL)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LoginToken{}).
			Where("user_uuid = ? AND expires_at > ?", u.UUID, now).
			Update("expires_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.LoginToken{
			UUID:      newUUID(),
			UserUUID:  u.UUID,
			Token:     token,
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &TokenGrant{Token: token, ExpiresAt: expiresAt, Email: u.Email}, nil
}

// IssueJWT is the privileged login: only a user holding the super-admin
// role may obtain a bearer token. The role and its permission list are
// snapshotted into the claims.
func (s *CredentialService) IssueJWT(ctx context.Context, email, password string) (*AdminSession, error) {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var role models.Role
	if u.RoleUUID == nil {
		return nil, apperr.Unauthorized("insufficient privilege")
	}
	if err := db.First(&role, "uuid = ?", *u.RoleUUID).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if role.Slug != models.SuperAdminSlug {
		return nil, apperr.Unauthorized("insufficient privilege")
	}
	if auth.CheckPassword(u.PasswordHash, password) != nil {
		return nil, apperr.NotFound("invalid credentials")
	}

	perms, err := permissionsForRole(db, role.UUID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	rc := auth.RoleClaim{UUID: role.UUID, Name: role.Name, Slug: role.Slug, Permissions: make([]auth.PermissionClaim, 0, len(perms))}
	for _, p := range perms {
		rc.Permissions = append(rc.Permissions, auth.PermissionClaim{UUID: p.UUID, Name: p.Name, Slug: p.Slug})
	}
	tok, err := auth.Sign(auth.Claims{UUID: u.UUID, Email: u.Email, Role: &rc}, []byte(s.cfg.JWTSecret), s.cfg.JWTExpiresIn)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AdminSession{UUID: u.UUID, JWTToken: tok}, nil
}

// VerifyBearerToken validates a bearer token and returns its claims.
func (s *CredentialService) VerifyBearerToken(token string) (auth.Claims, error) {
	c, err := auth.Verify(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return auth.Claims{}, apperr.Unauthorized("invalid token")
	}
	return c, nil
}

// InitiateForgotPassword verifies both security answers and mints a reset
// token, retiring any previously active one.
func (s *CredentialService) InitiateForgotPassword(ctx context.Context, email, answer1, answer2 string) (*TokenGrant, error) {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var sq models.SecurityQuestion
	if err := db.First(&sq, "user_uuid = ?", u.UUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.BadRequest("security questions not configured")
		}
		return nil, apperr.Internal(err)
	}
	if auth.CheckPassword(sq.Answer1Hash, answer1) != nil || auth.CheckPassword(sq.Answer2Hash, answer2) != nil {
		return nil, apperr.BadRequest("incorrect security answers")
	}

	token, err := randomToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := time.Now()
	expiresAt := now.Add(s.cfg.ResetTokenTTL)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ResetPasswordToken{}).
			Where("user_uuid = ? AND expires_at > ?", u.UUID, now).
			Update("expires_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.ResetPasswordToken{
			UUID:      newUUID(),
			UserUUID:  u.UUID,
			Token:     token,
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &TokenGrant{Token: token, ExpiresAt: expiresAt, Email: u.Email}, nil
}

// ResetPassword redeems a reset token for a password change. The token is
// retired before the password is written, so it is single-use even if the
// second write never lands.
func (s *CredentialService) ResetPassword(ctx context.Context, token, email, newPassword string) (string, error) {
	if newPassword == "" {
		return "", apperr.BadRequest("new password required")
	}
	db := s.db.WithContext(ctx)
	now := time.Now()

	var rt models.ResetPasswordToken
	err := db.Where("token = ? AND expires_at >= ?", token, now).
		Order("created_at DESC").
		First(&rt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.BadRequest("invalid reset token")
		}
		return "", apperr.Internal(err)
	}

	var u models.User
	if err := db.First(&u, "uuid = ?", rt.UserUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("user not found")
		}
		return "", apperr.Internal(err)
	}
	if !strings.EqualFold(u.Email, strings.TrimSpace(email)) {
		return "", apperr.BadRequest("invalid reset token")
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.HashRounds)
	if err != nil {
		return "", apperr.Internal(err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		// Retire first: a failure after this point still leaves the token spent.
		if err := tx.Model(&models.ResetPasswordToken{}).
			Where("uuid = ?", rt.UUID).
			Update("expires_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("uuid = ?", u.UUID).
			Update("password_hash", hash).Error
	})
	if err != nil {
		return "", apperr.Internal(err)
	}
	return "password updated", nil
}

// UpdatePassword changes the password after re-verifying the current one.
func (s *CredentialService) UpdatePassword(ctx context.Context, userUUID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return apperr.BadRequest("new password required")
	}
	u, err := s.userByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if auth.CheckPassword(u.PasswordHash, currentPassword) != nil {
		return apperr.BadRequest("current password mismatch")
	}
	hash, err := auth.HashPassword(newPassword, s.cfg.HashRounds)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("uuid = ?", u.UUID).
		Update("password_hash", hash).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// SetInitialSecurityQuestion installs the two recovery questions for a user
// who has none yet and flips the account to recoverable.
func (s *CredentialService) SetInitialSecurityQuestion(ctx context.Context, userUUID string, q1 int, answer1 string, q2 int, answer2 string) error {
	u, err := s.userByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if u.IsRecoverable {
		return apperr.Conflict("security questions already configured")
	}
	return s.writeSecurityQuestion(ctx, u, q1, answer1, q2, answer2, false)
}

// UpdateSecurityQuestion replaces existing questions after current-password
// re-verification; for a user with none it behaves like the first-time set.
func (s *CredentialService) UpdateSecurityQuestion(ctx context.Context, userUUID, currentPassword string, q1 int, answer1 string, q2 int, answer2 string) error {
	u, err := s.userByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if !u.IsRecoverable {
		return s.writeSecurityQuestion(ctx, u, q1, answer1, q2, answer2, false)
	}
	if auth.CheckPassword(u.PasswordHash, currentPassword) != nil {
		return apperr.BadRequest("current password mismatch")
	}
	return s.writeSecurityQuestion(ctx, u, q1, answer1, q2, answer2, true)
}

func (s *CredentialService) writeSecurityQuestion(ctx context.Context, u *models.User, q1 int, answer1 string, q2 int, answer2 string, replace bool) error {
	if answer1 == "" || answer2 == "" {
		return apperr.BadRequest("both answers required")
	}
	h1, err := auth.HashPassword(answer1, s.cfg.HashRounds)
	if err != nil {
		return apperr.Internal(err)
	}
	h2, err := auth.HashPassword(answer2, s.cfg.HashRounds)
	if err != nil {
		return apperr.Internal(err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replace {
			if err := tx.Model(&models.SecurityQuestion{}).
				Where("user_uuid = ?", u.UUID).
				Updates(map[string]any{
					"question1":    q1,
					"answer1_hash": h1,
					"question2":    q2,
					"answer2_hash": h2,
				}).Error; err != nil {
				return err
			}
			return nil
		}
		if err := tx.Create(&models.SecurityQuestion{
			UUID:        newUUID(),
			UserUUID:    u.UUID,
			Question1:   q1,
			Answer1Hash: h1,
			Question2:   q2,
			Answer2Hash: h2,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("uuid = ?", u.UUID).Update("is_recoverable", true).Error
	})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *CredentialService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same class as a wrong password so callers can't probe for accounts.
			return nil, apperr.NotFound("invalid credentials")
		}
		return nil, apperr.Internal(err)
	}
	return &u, nil
}

func (s *CredentialService) userByUUID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "uuid = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return &u, nil
}
