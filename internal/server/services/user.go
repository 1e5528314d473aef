package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/cryptox"
	"github.com/dmitrijs2005/gophreddit/internal/dbx"
	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	activationSubject = "Please Activate your Account"
	activationText    = "Thank you for signing up to GophReddit, please click on the below url to activate your account:\n\n%s/api/auth/accountVerification/%s"

	refreshTokenBytes = 32
)

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	Username     string `json:"username"`
}

type AuthenticationResponse struct {
	AuthenticationToken string    `json:"authenticationToken"`
	RefreshToken        string    `json:"refreshToken"`
	ExpiresAt           time.Time `json:"expiresAt"`
	Username            string    `json:"username"`
}

// TokenIssuer mints access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// UserServiceConfig carries the settings UserService needs from server config.
type UserServiceConfig struct {
	BaseURL              string
	VerificationTokenTTL time.Duration
}

// UserService implements the credential lifecycle:
// - Signup: create a disabled account and mail its activation link
// - VerifyAccount: consume the link and enable the account
// - Login, Refresh, Logout: access and refresh token handling
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	tokens        TokenIssuer
	hasher        cryptox.PasswordHasher
	authenticator Authenticator
	notifier      *Notifier
	cfg           UserServiceConfig
	log           logging.Logger
	now           func() time.Time
}

func NewUserService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	tokens TokenIssuer,
	hasher cryptox.PasswordHasher,
	notifier *Notifier,
	cfg UserServiceConfig,
	log logging.Logger,
) (*UserService, error) {
	authenticator, err := NewPasswordAuthenticator(db, m, hasher)
	if err != nil {
		return nil, err
	}
	return &UserService{
		db:            db,
		repomanager:   m,
		tokens:        tokens,
		hasher:        hasher,
		authenticator: authenticator,
		notifier:      notifier,
		cfg:           cfg,
		log:           log.With("module", "users"),
		now:           time.Now,
	}, nil
}

// Signup registers a disabled account and queues the activation mail.
// Mail problems never fail the signup.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	token := uuid.NewString()
	var user *models.User

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrDuplicateIdentity
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		expiresAt := s.now().Add(s.cfg.VerificationTokenTTL)
		if err := s.repomanager.VerificationTokens(tx).Create(ctx, u.ID, token, expiresAt); err != nil {
			return fmt.Errorf("error creating verification token: %w", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "username", user.UserName)
	s.notifier.Notify(ctx, user.Email, activationSubject, fmt.Sprintf(activationText, s.cfg.BaseURL, token))
	return user, nil
}

// VerifyAccount enables the account owning token and consumes the token.
// Unknown and expired tokens yield common.ErrInvalidToken.
func (s *UserService) VerifyAccount(ctx context.Context, token string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.VerificationTokens(tx)

		vt, err := repo.Find(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error searching verification token: %w", err)
		}
		if vt.Expired(s.now()) {
			return common.ErrInvalidToken
		}

		if err := s.repomanager.Users(tx).Enable(ctx, vt.UserID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error enabling user: %w", err)
		}
		if err := repo.Delete(ctx, token); err != nil {
			return fmt.Errorf("error deleting verification token: %w", err)
		}
		return nil
	})
}

// Login authenticates the credentials and returns a fresh access token
// together with a newly stored refresh token.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthenticationResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	user, err := s.authenticator.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	access, expiresAt, err := s.tokens.Issue(user.UserName)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}

	refresh, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}
	if _, err := s.repomanager.RefreshTokens(s.db).Create(ctx, user.UserName, refresh); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &AuthenticationResponse{
		AuthenticationToken: access,
		RefreshToken:        refresh,
		ExpiresAt:           expiresAt,
		Username:            user.UserName,
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The token
// is minted for the username the refresh token was issued to.
func (s *UserService) Refresh(ctx context.Context, req RefreshTokenRequest) (*AuthenticationResponse, error) {
	if req.RefreshToken == "" {
		return nil, common.ErrInvalidRefreshToken
	}

	rt, err := s.repomanager.RefreshTokens(s.db).Find(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if req.Username != "" && req.Username != rt.UserName {
		s.log.Warn(ctx, "refresh username mismatch ignored", "claimed", req.Username, "owner", rt.UserName)
	}

	access, expiresAt, err := s.tokens.Issue(rt.UserName)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}

	return &AuthenticationResponse{
		AuthenticationToken: access,
		RefreshToken:        req.RefreshToken,
		ExpiresAt:           expiresAt,
		Username:            rt.UserName,
	}, nil
}

// Logout revokes refreshToken. Revoking an unknown token succeeds.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// LoadIdentity resolves a token subject to its user.
func (s *UserService) LoadIdentity(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
}
