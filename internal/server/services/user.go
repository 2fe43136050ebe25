// Package services contains server-side business logic. This file implements
// UserService, which handles e-mail OTP registration, password login and
// server-side sessions.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/cryptox"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/auth"
	"github.com/dmitrijs2005/taskflow/internal/server/config"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/verifications"
)

// Mailer delivers registration codes.
type Mailer interface {
	SendOTP(ctx context.Context, email, otp string) error
}

// IssuedSession is what the transport layer needs to set the session cookie.
type IssuedSession struct {
	Cookie string
	TTL    time.Duration
}

// UserService provides authentication-related operations:
//   - SendOTP / VerifyOTP: two-step registration
//   - Login / Logout: password sign-in and session teardown
//   - ResolveSession: map a session cookie back to its user
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	mailer          Mailer
	logger          logging.Logger
	sessionSecret   []byte
	sessionValidity time.Duration
	otpValidity     time.Duration
	dummyHash       string
	now             func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, logger logging.Logger, cfg *config.Config) *UserService {
	otpValidity := cfg.OTPValidityDuration
	if otpValidity <= 0 {
		otpValidity = common.DefaultOTPValidity
	}
	return &UserService{
		db:              db,
		repomanager:     m,
		mailer:          mailer,
		logger:          logger.With("module", "users"),
		sessionSecret:   []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
		otpValidity:     otpValidity,
		dummyHash:       cryptox.HashPassword("taskflow-dummy-password"),
		now:             time.Now,
	}
}

// SendOTP issues a fresh registration code for email and mails it.
// Any previously issued code for the same address stops working.
func (s *UserService) SendOTP(ctx context.Context, email, password, name string) error {
	email = strings.TrimSpace(email)
	if err := validateRegistration(email, password, name); err != nil {
		return err
	}

	if _, err := s.repomanager.Users(s.db).GetByUsername(ctx, email); err == nil {
		return common.NewValidationError("email", "Email already exists")
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error looking up user: %w", err)
	}

	otp, err := common.GenerateOTP()
	if err != nil {
		return fmt.Errorf("error generating otp: %w", err)
	}

	v := &models.EmailVerification{Email: email, OTP: otp, ExpiresAt: s.now().Add(s.otpValidity)}
	if err := s.repomanager.Verifications(s.db).Upsert(ctx, v); err != nil {
		return fmt.Errorf("error storing otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, otp); err != nil {
		return fmt.Errorf("error sending otp: %w", err)
	}

	s.logger.Info(ctx, "otp issued", "email", email)
	return nil
}

// VerifyOTP redeems a registration code. On success the verified user is
// created, the code is consumed and a session is opened. The pending row is
// locked for the whole check so a concurrent SendOTP cannot be lost.
func (s *UserService) VerifyOTP(ctx context.Context, email, otp, password, name string) (*models.User, *IssuedSession, error) {
	email = strings.TrimSpace(email)
	if err := validateRegistration(email, password, name); err != nil {
		return nil, nil, err
	}

	var user *models.User
	rejected := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Verifications(tx)

		v, err := repo.FindForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				rejected = true
				return nil
			}
			return fmt.Errorf("error reading otp: %w", err)
		}
		if v.Expired(s.now()) {
			rejected = true
			return nil
		}
		if subtle.ConstantTimeCompare([]byte(v.OTP), []byte(otp)) != 1 {
			rejected = true
			return s.recordMiss(ctx, repo, email)
		}

		created, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     email,
			Name:         strings.TrimSpace(name),
			PasswordHash: cryptox.HashPassword(password),
			Verified:     true,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.NewValidationError("email", "Email already exists")
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		if err := repo.Delete(ctx, email); err != nil {
			return fmt.Errorf("error consuming otp: %w", err)
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if rejected {
		return nil, nil, common.ErrorInvalidOTP
	}

	sess, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, sess, nil
}

// recordMiss counts a wrong code and drops the verification once the
// attempt budget is spent, so a new code has to be requested.
func (s *UserService) recordMiss(ctx context.Context, repo verifications.Repository, email string) error {
	attempts, err := repo.RecordFailure(ctx, email)
	if err != nil {
		return fmt.Errorf("error recording otp failure: %w", err)
	}
	if attempts < common.MaxOTPAttempts {
		return nil
	}
	if err := repo.Delete(ctx, email); err != nil {
		return fmt.Errorf("error discarding otp: %w", err)
	}
	s.logger.Warn(ctx, "otp discarded after too many attempts", "email", email)
	return nil
}

// Login checks the password and opens a session. Unknown users, wrong
// passwords and unverified accounts all yield common.ErrorInvalidCreds.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*models.User, *IssuedSession, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the timing of unknown users close to a real check
			cryptox.VerifyPassword(s.dummyHash, password)
			return nil, nil, common.ErrorInvalidCreds
		}
		return nil, nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !cryptox.VerifyPassword(user.PasswordHash, password) || !user.Verified {
		return nil, nil, common.ErrorInvalidCreds
	}

	sess, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

// Logout removes the session behind cookie. Missing or invalid cookies are
// not an error.
func (s *UserService) Logout(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	token, err := auth.ParseSession(cookie, s.sessionSecret)
	if err != nil {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// ResolveSession returns the user owning the session behind cookie, loaded
// fresh from storage. Any failure to authenticate yields common.ErrorUnauthorized.
func (s *UserService) ResolveSession(ctx context.Context, cookie string) (*models.User, error) {
	token, err := auth.ParseSession(cookie, s.sessionSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	sessions := s.repomanager.Sessions(s.db)
	sess, err := sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error reading session: %w", err)
	}

	if sess.Expired(s.now()) {
		if err := sessions.Delete(ctx, token); err != nil {
			s.logger.Warn(ctx, "failed to drop expired session", "error", err)
		}
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging sessions: %w", err)
	}
	return n, nil
}

// --- helpers below ---

func (s *UserService) issueSession(ctx context.Context, userID string) (*IssuedSession, error) {
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating session token: %w", err)
	}

	if _, err := s.repomanager.Sessions(s.db).Create(ctx, userID, token, s.sessionValidity); err != nil {
		return nil, fmt.Errorf("error storing session: %w", err)
	}

	signed, err := auth.SignSession(token, s.sessionSecret, s.sessionValidity)
	if err != nil {
		return nil, fmt.Errorf("error signing session: %w", err)
	}

	return &IssuedSession{Cookie: signed, TTL: s.sessionValidity}, nil
}

func validateRegistration(email, password, name string) error {
	if email == "" {
		return common.NewValidationError("email", "Email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return common.NewValidationError("email", "Invalid email")
	}
	if password == "" {
		return common.NewValidationError("password", "Password is required")
	}
	if strings.TrimSpace(name) == "" {
		return common.NewValidationError("name", "Name is required")
	}
	return nil
}
