// Package auth implements the gateway's session orchestrator: the stateful
// coordinator that reconciles the issuer's authentication decisions, the
// local identity mapping, and the stored refresh-token record.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/dbx"
	"github.com/dmitrijs2005/authbridge/internal/gateway/config"
	"github.com/dmitrijs2005/authbridge/internal/gateway/iamclient"
	"github.com/dmitrijs2005/authbridge/internal/gateway/mappings"
	"github.com/dmitrijs2005/authbridge/internal/gateway/sessions"
	"github.com/dmitrijs2005/authbridge/internal/gateway/users"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/token"
)

// IamClient is the subset of the issuer API the orchestrator drives.
type IamClient interface {
	Authenticate(ctx context.Context, email, password string) (*iamclient.AuthenticateResult, error)
	ValidateRefreshToken(ctx context.Context, refreshToken string) (*iamclient.ValidateResult, error)
	RenewTokens(ctx context.Context, refreshToken string) (*iamclient.RenewResult, error)
}

// LoginResult is what the transport layer needs to answer a login: the local
// user projection and the access token for the cookie and response body. The
// refresh token stays server-side.
type LoginResult struct {
	User        *users.User
	AccessToken string
	ExpiresIn   int64
}

// SessionResult is the outcome of a session probe. It is always definite;
// the probe never fails.
type SessionResult struct {
	Valid       bool
	User        *users.User
	AccessToken string
}

// Renewal is the outcome of a successful token renewal.
type Renewal struct {
	AccessToken         string
	ExpiresIn           int64
	RefreshTokenUpdated bool
}

type Service struct {
	db                  *sql.DB
	userRepo            users.Repository
	mappingRepo         mappings.Repository
	sessionRepo         sessions.Repository
	iam                 IamClient
	logger              logging.Logger
	jwtSecret           []byte
	accessTokenValidity time.Duration
}

func NewService(db *sql.DB, ur users.Repository, mr mappings.Repository, sr sessions.Repository, iam IamClient, cfg *config.Config, l logging.Logger) *Service {
	return &Service{
		db:                  db,
		userRepo:            ur,
		mappingRepo:         mr,
		sessionRepo:         sr,
		iam:                 iam,
		logger:              l.With("module", "auth_service"),
		jwtSecret:           []byte(cfg.SecretKey),
		accessTokenValidity: cfg.AccessTokenValidity,
	}
}

// issuerKey derives the integer key of an issuer identity for the mapping
// table. When the issuer exposes a numeric id it is used directly; an
// opaque external id is folded (lossy, see mappings.FoldExternalID).
func issuerKey(u *iamclient.IamUser) int64 {
	if u.ID != 0 {
		return u.ID
	}
	return mappings.FoldExternalID(u.ExternalID)
}

// Login authenticates against the issuer, resolves or creates the local
// identity, and persists the session. Credential rejections and issuer
// outages are propagated as-is from the client layer.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {

	res, err := s.iam.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	iamID := issuerKey(&res.User)

	user, err := s.resolveIdentity(ctx, iamID, &res.User)
	if err != nil {
		return nil, err
	}

	expiresAt, err := token.Expiry(res.RefreshToken)
	if err != nil {
		// a 200 with an undecodable refresh token is a broken issuer
		return nil, common.ErrServiceUnavailable
	}

	// always take the newest token; a new login replaces the old session
	if err := s.sessionRepo.Upsert(ctx, user.ID, res.RefreshToken, "", expiresAt); err != nil {
		s.logger.Error(ctx, "refresh token upsert failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	access := res.AccessToken
	expiresIn := res.ExpiresIn
	if res.User.ID == 0 {
		// fold-keyed identity: the issuer token's uid claim cannot address
		// the mapping, so mint a token keyed the same way the mapping is
		access, err = token.Generate(iamID, res.User.Email, res.User.DisplayName,
			s.jwtSecret, s.accessTokenValidity, token.AudienceAccess)
		if err != nil {
			s.logger.Error(ctx, "access token mint failed", "error", err.Error())
			return nil, common.ErrorInternal
		}
		expiresIn = int64(s.accessTokenValidity.Seconds())
	}

	return &LoginResult{User: user, AccessToken: access, ExpiresIn: expiresIn}, nil
}

// resolveIdentity maps the issuer identity to a local user, creating both
// the mirror row and the mapping on first login. Concurrent first logins
// race on two unique indexes: the user insert comes first, so the loser
// usually trips the email index, and otherwise iam_user_id. Either way the
// transaction rolls back and the loser re-reads the winning mapping
// instead of erroring.
func (s *Service) resolveIdentity(ctx context.Context, iamID int64, iamUser *iamclient.IamUser) (*users.User, error) {

	localID, err := s.mappingRepo.FindLocalIDByIamID(ctx, iamID)
	if err == nil {
		return s.loadAndReconcile(ctx, localID, iamUser)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "mapping lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	var created *users.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.userRepo.Create(ctx, tx, &users.User{Email: iamUser.Email, DisplayName: iamUser.DisplayName})
		if err != nil {
			return err
		}
		if _, err := s.mappingRepo.Create(ctx, tx, iamID, u.ID); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, common.ErrMappingConflict) && !errors.Is(err, common.ErrorAlreadyExists) {
		s.logger.Error(ctx, "identity creation failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	// lost the first-login race: the transaction rolled back, the winner's
	// mapping is now readable
	localID, err = s.mappingRepo.FindLocalIDByIamID(ctx, iamID)
	if err != nil {
		s.logger.Error(ctx, "mapping re-read after conflict failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	return s.loadAndReconcile(ctx, localID, iamUser)
}

// loadAndReconcile loads the mirror row behind a mapping and updates the
// mutable profile fields if they drifted from the issuer's copy.
func (s *Service) loadAndReconcile(ctx context.Context, localID int64, iamUser *iamclient.IamUser) (*users.User, error) {
	user, err := s.userRepo.GetByID(ctx, localID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// the mapping points at a row that is gone: data-integrity fault
			return nil, common.ErrInconsistentMapping
		}
		s.logger.Error(ctx, "local user lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if user.Email != iamUser.Email || user.DisplayName != iamUser.DisplayName {
		user, err = s.userRepo.UpdateProfile(ctx, localID, iamUser.Email, iamUser.DisplayName)
		if err != nil {
			s.logger.Error(ctx, "profile reconciliation failed", "error", err.Error())
			return nil, common.ErrorInternal
		}
	}

	return user, nil
}

// ValidateAccessToken verifies a gateway- or issuer-minted access token and
// resolves the embedded subject to a local user. It fails closed: any
// verification error, expired signature, or missing mapping yields
// (nil, nil), which callers treat uniformly as "not authenticated".
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (*users.User, error) {
	claims, err := token.Parse(accessToken, s.jwtSecret, token.AudienceAccess)
	if err != nil {
		return nil, nil
	}

	localID, err := s.mappingRepo.FindLocalIDByIamID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "mapping lookup failed", "error", err.Error())
		}
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, localID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "local user lookup failed", "error", err.Error())
		}
		return nil, nil
	}

	return user, nil
}

// Session answers the session probe. The fast path is a still-valid access
// token from the cookie; the recovery path takes the local-user hint, finds
// the stored refresh token, and asks the issuer to validate it, minting a
// fresh access token on success. The probe always produces a definite
// result and never returns an error.
func (s *Service) Session(ctx context.Context, accessToken string, localUserHint int64) *SessionResult {

	if accessToken != "" {
		if user, _ := s.ValidateAccessToken(ctx, accessToken); user != nil {
			return &SessionResult{Valid: true, User: user}
		}
	}

	if localUserHint == 0 {
		return &SessionResult{Valid: false}
	}

	user, err := s.userRepo.GetByID(ctx, localUserHint)
	if err != nil {
		return &SessionResult{Valid: false}
	}

	rec, err := s.sessionRepo.FindByLocalUserID(ctx, user.ID)
	if err != nil {
		return &SessionResult{Valid: false}
	}

	v, err := s.iam.ValidateRefreshToken(ctx, rec.Token)
	if err != nil {
		// transient issuer fault: report invalid without touching the record
		s.logger.Warn(ctx, "refresh token validation unavailable", "error", err.Error())
		return &SessionResult{Valid: false}
	}
	if !v.Valid || v.Payload == nil {
		// the issuer is authoritative; the cached record is now stale
		if err := s.sessionRepo.Delete(ctx, user.ID); err != nil {
			s.logger.Error(ctx, "stale refresh token delete failed", "error", err.Error())
		}
		return &SessionResult{Valid: false}
	}

	// the uid claim must equal the mapping key, or the minted token could
	// never pass ValidateAccessToken
	iamID, err := s.mappingRepo.FindIamIDByLocalID(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "mapping lookup failed", "error", err.Error())
		return &SessionResult{Valid: false}
	}

	access, err := token.Generate(iamID, user.Email, user.DisplayName,
		s.jwtSecret, s.accessTokenValidity, token.AudienceAccess)
	if err != nil {
		s.logger.Error(ctx, "access token mint failed", "error", err.Error())
		return &SessionResult{Valid: false}
	}

	return &SessionResult{Valid: true, User: user, AccessToken: access}
}

// RenewAccessToken drives the renewal protocol for one local user.
func (s *Service) RenewAccessToken(ctx context.Context, localUserID int64) (*Renewal, error) {

	rec, err := s.sessionRepo.FindByLocalUserID(ctx, localUserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoActiveSession
		}
		s.logger.Error(ctx, "refresh token lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	// check the embedded expiry before bothering the issuer
	if exp, err := token.Expiry(rec.Token); err == nil && exp.Before(time.Now()) {
		if err := s.sessionRepo.Delete(ctx, localUserID); err != nil {
			s.logger.Error(ctx, "expired refresh token delete failed", "error", err.Error())
		}
		return nil, common.ErrRefreshTokenExpired
	}

	res, err := s.iam.RenewTokens(ctx, rec.Token)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenInvalid) {
			// known-bad: purge the local record
			if derr := s.sessionRepo.Delete(ctx, localUserID); derr != nil {
				s.logger.Error(ctx, "rejected refresh token delete failed", "error", derr.Error())
			}
			return nil, common.ErrRefreshTokenInvalid
		}
		// connectivity fault: no local mutation, safe to retry
		return nil, err
	}

	if res.RefreshTokenUpdated {
		expiresAt, err := token.Expiry(res.RefreshToken)
		if err != nil {
			return nil, common.ErrServiceUnavailable
		}
		if err := s.sessionRepo.Upsert(ctx, localUserID, res.RefreshToken, "", expiresAt); err != nil {
			s.logger.Error(ctx, "rotated refresh token upsert failed", "error", err.Error())
			return nil, common.ErrorInternal
		}
	}

	access := res.AccessToken
	if claims, perr := token.Parse(access, s.jwtSecret, token.AudienceAccess); perr == nil && claims.UserID == 0 {
		// fold-keyed identity: re-key the token so its uid claim addresses
		// the mapping
		iamID, merr := s.mappingRepo.FindIamIDByLocalID(ctx, localUserID)
		if merr != nil {
			s.logger.Error(ctx, "mapping lookup failed", "error", merr.Error())
			return nil, common.ErrorInternal
		}
		access, merr = token.Generate(iamID, claims.Email, claims.DisplayName,
			s.jwtSecret, s.accessTokenValidity, token.AudienceAccess)
		if merr != nil {
			s.logger.Error(ctx, "access token mint failed", "error", merr.Error())
			return nil, common.ErrorInternal
		}
	}

	return &Renewal{
		AccessToken:         access,
		ExpiresIn:           res.ExpiresIn,
		RefreshTokenUpdated: res.RefreshTokenUpdated,
	}, nil
}

// Logout removes the local session. It always succeeds locally when the
// store is reachable; the issuer keeps no per-session server state to
// notify.
func (s *Service) Logout(ctx context.Context, localUserID int64) error {
	if err := s.sessionRepo.Delete(ctx, localUserID); err != nil {
		s.logger.Error(ctx, "logout delete failed", "error", err.Error())
		return common.ErrorInternal
	}
	return nil
}
