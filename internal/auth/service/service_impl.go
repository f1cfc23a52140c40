package service

import (
	"context"
	"strconv"
	"strings"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/auth/password"
	"github.com/agrilink/agrilink/internal/auth/token"
	"github.com/agrilink/agrilink/internal/clock"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/agrilink/agrilink/pkg/validation"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   authdomain.Repository
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   authdomain.Repository
	clock  clock.Clock
	signer *token.Signer
	cfg    config.Config
}

func New(p Params) authdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		clock:  p.Clock,
		signer: token.NewSigner(p.Config.AuthJWTSecret, p.Config.AuthAccessTTL, p.Clock.Now),
		cfg:    p.Config,
	}
}

func (s *Service) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.AuthResult, error) {
	email := normalizeEmail(req.Email)
	role := authdomain.RoleFarmer
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := authdomain.ParseRole(req.Role)
		if !ok {
			return nil, validation.NewError("role", "oneof", "role must be one of FARMER BUYER INSPECTOR ADMIN")
		}
		role = parsed
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &authdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var result *authdomain.AuthResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindUserByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return authdomain.ErrUserExists
		}
		if err := s.repo.InsertUser(ctx, tx, user); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return authdomain.ErrUserExists
			}
			return err
		}

		pair, err := s.openSession(ctx, tx, user, req.UserAgent, req.IPAddress)
		if err != nil {
			return err
		}
		result = &authdomain.AuthResult{User: user.Identity(), TokenPair: *pair}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return result, nil
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.AuthResult, error) {
	user, err := s.repo.FindUserByEmail(ctx, s.db, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, s.db, user, req.UserAgent, req.IPAddress)
	if err != nil {
		return nil, err
	}
	return &authdomain.AuthResult{User: user.Identity(), TokenPair: *pair}, nil
}

// Refresh rotates the refresh token in place and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*authdomain.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, authdomain.ErrInvalidSession
	}

	var (
		pair    *authdomain.TokenPair
		expired bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.repo.FindSessionByTokenHash(ctx, tx, token.HashRefreshToken(refreshToken))
		if err != nil {
			return err
		}
		if session == nil {
			return authdomain.ErrInvalidSession
		}
		if !s.clock.Now().Before(session.ExpiresAt) {
			// Returning nil commits the delete; expiry is reported after the transaction.
			expired = true
			return s.repo.DeleteSession(ctx, tx, session.ID)
		}

		user, err := s.repo.FindUserByID(ctx, tx, session.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return authdomain.ErrUserNotFound
		}

		raw, hash, err := token.NewRefreshToken()
		if err != nil {
			return err
		}
		if err := s.repo.RotateSession(ctx, tx, session.ID, hash, s.clock.Now().Add(s.cfg.AuthRefreshTTL)); err != nil {
			return err
		}

		access, err := s.issueAccess(user)
		if err != nil {
			return err
		}
		pair = &authdomain.TokenPair{AccessToken: access, RefreshToken: raw}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, authdomain.ErrSessionExpired
	}
	return pair, nil
}

// Logout is idempotent; unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.repo.DeleteSessionsByTokenHash(ctx, s.db, token.HashRefreshToken(refreshToken))
}

func (s *Service) Authenticate(ctx context.Context, accessToken string) (*authdomain.Identity, error) {
	claims, err := s.signer.Parse(accessToken)
	if err != nil {
		return nil, authdomain.ErrInvalidToken
	}
	id, err := snowflake.ParseString(claims.UserID)
	if err != nil {
		return nil, authdomain.ErrInvalidToken
	}

	user, err := s.repo.FindUserByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	identity := user.Identity()
	return &identity, nil
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	user, err := s.repo.FindUserByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) openSession(ctx context.Context, tx *gorm.DB, user *authdomain.User, userAgent, ip string) (*authdomain.TokenPair, error) {
	raw, hash, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &authdomain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		RefreshTokenHash: hash,
		UserAgent:        strings.TrimSpace(userAgent),
		IPAddress:        strings.TrimSpace(ip),
		ExpiresAt:        now.Add(s.cfg.AuthRefreshTTL),
		CreatedAt:        now,
	}
	if err := s.repo.InsertSession(ctx, tx, session); err != nil {
		return nil, err
	}

	access, err := s.issueAccess(user)
	if err != nil {
		return nil, err
	}
	return &authdomain.TokenPair{AccessToken: access, RefreshToken: raw}, nil
}

func (s *Service) issueAccess(user *authdomain.User) (string, error) {
	return s.signer.Issue(strconv.FormatInt(int64(user.ID), 10), user.Email, string(user.Role))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
