// Package service contains the Auths core: credential lifecycle, RBAC
// reconciliation, user directory, and bootstrap seeding. Services return
// plain values or typed errors from internal/apperr; nothing in here knows
// about HTTP.
package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"auths/internal/apperr"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validSlug(slug string) bool { return slugPattern.MatchString(slug) }

// Pagination is the {limit, skip} window requested by the caller.
type Pagination struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

func (p Pagination) normalized() Pagination {
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}

// PageInfo is the envelope returned alongside every paginated result.
type PageInfo struct {
	TotalCount  int64 `json:"totalCount"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPage   int   `json:"totalPage"`
}

func newPageInfo(total int64, p Pagination) PageInfo {
	totalPage := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		totalPage++
	}
	return PageInfo{
		TotalCount:  total,
		CurrentPage: p.Skip / p.Limit,
		PageSize:    p.Limit,
		TotalPage:   totalPage,
	}
}

func newUUID() string { return uuid.NewString() }

// randomToken returns 32 random bytes hex-encoded, used for one-time login
// and password-reset tokens.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// dbErr translates storage failures into the service error taxonomy. The
// store opens GORM with TranslateError, so unique violations surface as
// gorm.ErrDuplicatedKey on every dialect.
func dbErr(err error, duplicateMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(duplicateMsg)
	}
	return apperr.Internal(err)
}
