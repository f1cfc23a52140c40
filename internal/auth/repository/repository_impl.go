package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() authdomain.Repository {
	return &repo{}
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, user *authdomain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	return nilIfNotFound(&user, err)
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return nilIfNotFound(&user, err)
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, session *authdomain.Session) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repo) FindSessionByTokenHash(ctx context.Context, db *gorm.DB, hash string) (*authdomain.Session, error) {
	var session authdomain.Session
	err := db.WithContext(ctx).Where("refresh_token_hash = ?", hash).First(&session).Error
	return nilIfNotFound(&session, err)
}

func (r *repo) RotateSession(ctx context.Context, db *gorm.DB, id snowflake.ID, newHash string, expiresAt time.Time) error {
	return db.WithContext(ctx).Model(&authdomain.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"refresh_token_hash": newHash,
			"expires_at":         expiresAt,
		}).Error
}

func (r *repo) DeleteSession(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&authdomain.Session{}).Error
}

func (r *repo) DeleteSessionsByTokenHash(ctx context.Context, db *gorm.DB, hash string) error {
	return db.WithContext(ctx).Where("refresh_token_hash = ?", hash).Delete(&authdomain.Session{}).Error
}

func nilIfNotFound[T any](row *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}
