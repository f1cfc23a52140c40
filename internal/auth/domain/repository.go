package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository lookups return nil, nil when the row does not exist.
type Repository interface {
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)

	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, hash string) (*Session, error)
	RotateSession(ctx context.Context, db *gorm.DB, id snowflake.ID, newHash string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteSessionsByTokenHash(ctx context.Context, db *gorm.DB, hash string) error
}
