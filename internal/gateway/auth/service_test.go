package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/dbx"
	"github.com/dmitrijs2005/authbridge/internal/gateway/config"
	"github.com/dmitrijs2005/authbridge/internal/gateway/iamclient"
	"github.com/dmitrijs2005/authbridge/internal/gateway/mappings"
	"github.com/dmitrijs2005/authbridge/internal/gateway/sessions"
	"github.com/dmitrijs2005/authbridge/internal/gateway/users"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUsers struct {
	rows   map[int64]*users.User
	nextID int64

	// when set, Create fails as if the email unique index fired; the hook
	// runs first so a test can make the race winner's rows visible
	conflict   bool
	onConflict func()
}

func (f *fakeUsers) Create(ctx context.Context, tx dbx.DBTX, u *users.User) (*users.User, error) {
	if f.conflict {
		if f.onConflict != nil {
			f.onConflict()
		}
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	created := &users.User{ID: f.nextID, Email: u.Email, DisplayName: u.DisplayName}
	f.rows[created.ID] = created
	return created, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*users.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	for _, u := range f.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id int64, email, displayName string) (*users.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Email = email
	u.DisplayName = displayName
	return u, nil
}

type fakeMappings struct {
	rows map[int64]int64 // iamUserID -> localUserID

	// when set, Create fails with ErrMappingConflict and the winner's row
	// becomes visible, simulating a lost first-login race
	conflict       bool
	conflictWinner int64
}

func (f *fakeMappings) Create(ctx context.Context, tx dbx.DBTX, iamUserID, localUserID int64) (*mappings.Mapping, error) {
	if f.conflict {
		f.rows[iamUserID] = f.conflictWinner
		return nil, common.ErrMappingConflict
	}
	f.rows[iamUserID] = localUserID
	return &mappings.Mapping{IamUserID: iamUserID, LocalUserID: localUserID}, nil
}

func (f *fakeMappings) FindLocalIDByIamID(ctx context.Context, iamUserID int64) (int64, error) {
	id, ok := f.rows[iamUserID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (f *fakeMappings) FindIamIDByLocalID(ctx context.Context, localUserID int64) (int64, error) {
	for iamID, localID := range f.rows {
		if localID == localUserID {
			return iamID, nil
		}
	}
	return 0, common.ErrorNotFound
}

func (f *fakeMappings) Exists(ctx context.Context, iamUserID, localUserID int64) (bool, error) {
	if _, ok := f.rows[iamUserID]; ok {
		return true, nil
	}
	_, err := f.FindIamIDByLocalID(ctx, localUserID)
	return err == nil, nil
}

type fakeSessions struct {
	rows    map[int64]*sessions.RefreshTokenRecord
	upserts int
	deletes int
}

func (f *fakeSessions) Upsert(ctx context.Context, localUserID int64, tokenValue, externalToken string, expiresAt time.Time) error {
	f.upserts++
	f.rows[localUserID] = &sessions.RefreshTokenRecord{
		LocalUserID:   localUserID,
		Token:         tokenValue,
		ExternalToken: externalToken,
		ExpiresAt:     expiresAt,
	}
	return nil
}

func (f *fakeSessions) FindByLocalUserID(ctx context.Context, localUserID int64) (*sessions.RefreshTokenRecord, error) {
	rec, ok := f.rows[localUserID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

func (f *fakeSessions) Delete(ctx context.Context, localUserID int64) error {
	f.deletes++
	delete(f.rows, localUserID)
	return nil
}

func (f *fakeSessions) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for id, rec := range f.rows {
		if rec.ExpiresAt.Before(now) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeIam struct {
	authenticate func(ctx context.Context, email, password string) (*iamclient.AuthenticateResult, error)
	validate     func(ctx context.Context, refreshToken string) (*iamclient.ValidateResult, error)
	renew        func(ctx context.Context, refreshToken string) (*iamclient.RenewResult, error)
}

func (f *fakeIam) Authenticate(ctx context.Context, email, password string) (*iamclient.AuthenticateResult, error) {
	return f.authenticate(ctx, email, password)
}

func (f *fakeIam) ValidateRefreshToken(ctx context.Context, refreshToken string) (*iamclient.ValidateResult, error) {
	return f.validate(ctx, refreshToken)
}

func (f *fakeIam) RenewTokens(ctx context.Context, refreshToken string) (*iamclient.RenewResult, error) {
	return f.renew(ctx, refreshToken)
}

type fixture struct {
	svc      *Service
	users    *fakeUsers
	mappings *fakeMappings
	sessions *fakeSessions
	iam      *fakeIam
	dbmock   sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fu := &fakeUsers{rows: map[int64]*users.User{}}
	fm := &fakeMappings{rows: map[int64]int64{}}
	fs := &fakeSessions{rows: map[int64]*sessions.RefreshTokenRecord{}}
	fi := &fakeIam{}

	cfg := &config.Config{SecretKey: testSecret, AccessTokenValidity: 2 * time.Minute}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{
		svc:      NewService(db, fu, fm, fs, fi, cfg, logger),
		users:    fu,
		mappings: fm,
		sessions: fs,
		iam:      fi,
		dbmock:   mock,
	}
}

func mintRefreshToken(t *testing.T, userID int64, validity time.Duration) string {
	t.Helper()
	tok, err := token.Generate(userID, "a@x.com", "Alice", []byte(testSecret), validity, token.AudienceRefresh)
	require.NoError(t, err)
	return tok
}

func mintAccessToken(t *testing.T, userID int64, validity time.Duration) string {
	t.Helper()
	tok, err := token.Generate(userID, "a@x.com", "Alice", []byte(testSecret), validity, token.AudienceAccess)
	require.NoError(t, err)
	return tok
}

func okAuthenticate(t *testing.T) func(ctx context.Context, email, password string) (*iamclient.AuthenticateResult, error) {
	refresh := mintRefreshToken(t, 42, 7*24*time.Hour)
	return func(ctx context.Context, email, password string) (*iamclient.AuthenticateResult, error) {
		return &iamclient.AuthenticateResult{
			User:         iamclient.IamUser{ID: 42, Email: "a@x.com", DisplayName: "Alice"},
			AccessToken:  "iam-access-token",
			RefreshToken: refresh,
			ExpiresIn:    120,
		}, nil
	}
}

func TestLogin_FirstLoginCreatesIdentity(t *testing.T) {
	f := newFixture(t)
	f.iam.authenticate = okAuthenticate(t)
	f.dbmock.ExpectBegin()
	f.dbmock.ExpectCommit()

	res, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "iam-access-token", res.AccessToken)
	assert.Equal(t, int64(120), res.ExpiresIn)
	assert.Equal(t, "a@x.com", res.User.Email)

	localID, err := f.mappings.FindLocalIDByIamID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, localID)

	rec, err := f.sessions.FindByLocalUserID(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), rec.ExpiresAt, time.Minute)

	assert.NoError(t, f.dbmock.ExpectationsWereMet())
}

func TestLogin_ExistingMappingReconcilesProfile(t *testing.T) {
	f := newFixture(t)
	f.iam.authenticate = okAuthenticate(t)
	f.users.rows[5] = &users.User{ID: 5, Email: "old@x.com", DisplayName: "Old Name"}
	f.mappings.rows[42] = 5

	res, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, int64(5), res.User.ID)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, "Alice", res.User.DisplayName)
}

func TestLogin_LostRaceReReadsWinner(t *testing.T) {
	f := newFixture(t)
	f.iam.authenticate = okAuthenticate(t)
	f.users.rows[9] = &users.User{ID: 9, Email: "a@x.com", DisplayName: "Alice"}
	f.mappings.conflict = true
	f.mappings.conflictWinner = 9
	f.dbmock.ExpectBegin()
	f.dbmock.ExpectRollback()

	res, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.User.ID)

	assert.NoError(t, f.dbmock.ExpectationsWereMet())
}

func TestLogin_LostRaceOnUserEmailReReadsWinner(t *testing.T) {
	f := newFixture(t)
	f.iam.authenticate = okAuthenticate(t)
	// the winner commits between the loser's mapping miss and its user
	// insert, so the loser trips the email index, not the mapping one
	f.users.conflict = true
	f.users.onConflict = func() {
		f.users.rows[9] = &users.User{ID: 9, Email: "a@x.com", DisplayName: "Alice"}
		f.mappings.rows[42] = 9
	}
	f.dbmock.ExpectBegin()
	f.dbmock.ExpectRollback()

	res, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.User.ID)

	assert.NoError(t, f.dbmock.ExpectationsWereMet())
}

func TestLogin_InvalidCredentialsPropagated(t *testing.T) {
	f := newFixture(t)
	f.iam.authenticate = func(ctx context.Context, email, password string) (*iamclient.AuthenticateResult, error) {
		return nil, common.ErrInvalidCredentials
	}

	_, err := f.svc.Login(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, f.sessions.rows)
}

func TestLogin_DanglingMappingDetected(t *testing.T) {
	f := newFixture(t)
	f.iam.authenticate = okAuthenticate(t)
	f.mappings.rows[42] = 77 // no user row behind it

	_, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	assert.ErrorIs(t, err, common.ErrInconsistentMapping)
}

func TestLogin_FoldedExternalIDWhenNoNumericID(t *testing.T) {
	f := newFixture(t)
	refresh := mintRefreshToken(t, 0, 7*24*time.Hour)
	f.iam.authenticate = func(ctx context.Context, email, password string) (*iamclient.AuthenticateResult, error) {
		return &iamclient.AuthenticateResult{
			User:         iamclient.IamUser{ExternalID: "0c6d2a9e-7f42-4f0a-9f2a-1b8c2d3e4f50", Email: "a@x.com", DisplayName: "Alice"},
			AccessToken:  "iam-access-token",
			RefreshToken: refresh,
			ExpiresIn:    120,
		}, nil
	}
	f.dbmock.ExpectBegin()
	f.dbmock.ExpectCommit()

	res, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	folded := mappings.FoldExternalID("0c6d2a9e-7f42-4f0a-9f2a-1b8c2d3e4f50")
	localID, err := f.mappings.FindLocalIDByIamID(context.Background(), folded)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, localID)

	// the token handed out must resolve back to the same local user
	user, err := f.svc.ValidateAccessToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, res.User.ID, user.ID)

	claims, err := token.Parse(res.AccessToken, []byte(testSecret), token.AudienceAccess)
	require.NoError(t, err)
	assert.Equal(t, folded, claims.UserID)
}

func TestValidateAccessToken(t *testing.T) {
	f := newFixture(t)
	f.users.rows[5] = &users.User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}
	f.mappings.rows[42] = 5

	user, err := f.svc.ValidateAccessToken(context.Background(), mintAccessToken(t, 42, time.Minute))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(5), user.ID)

	user, err = f.svc.ValidateAccessToken(context.Background(), "not-a-token")
	require.NoError(t, err)
	assert.Nil(t, user)

	// refresh tokens are never accepted where an access token is expected
	user, err = f.svc.ValidateAccessToken(context.Background(), mintRefreshToken(t, 42, time.Minute))
	require.NoError(t, err)
	assert.Nil(t, user)

	// subject without a mapping
	user, err = f.svc.ValidateAccessToken(context.Background(), mintAccessToken(t, 43, time.Minute))
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSession_ValidCookieFastPath(t *testing.T) {
	f := newFixture(t)
	f.users.rows[5] = &users.User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}
	f.mappings.rows[42] = 5

	res := f.svc.Session(context.Background(), mintAccessToken(t, 42, time.Minute), 0)
	assert.True(t, res.Valid)
	require.NotNil(t, res.User)
	assert.Equal(t, int64(5), res.User.ID)
	assert.Empty(t, res.AccessToken) // no re-mint needed
}

func TestSession_RecoveryViaStoredRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.users.rows[5] = &users.User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}
	f.mappings.rows[42] = 5
	refresh := mintRefreshToken(t, 42, 7*24*time.Hour)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, refresh, "", time.Now().Add(7*24*time.Hour)))
	f.iam.validate = func(ctx context.Context, rt string) (*iamclient.ValidateResult, error) {
		assert.Equal(t, refresh, rt)
		return &iamclient.ValidateResult{Valid: true, Payload: &iamclient.ValidatePayload{UserID: 42, Email: "a@x.com", Name: "Alice"}}, nil
	}

	res := f.svc.Session(context.Background(), "", 5)
	assert.True(t, res.Valid)
	require.NotEmpty(t, res.AccessToken)

	claims, err := token.Parse(res.AccessToken, []byte(testSecret), token.AudienceAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestSession_RecoveryMintsMappingKeyedToken(t *testing.T) {
	f := newFixture(t)
	folded := mappings.FoldExternalID("0c6d2a9e-7f42-4f0a-9f2a-1b8c2d3e4f50")
	f.users.rows[5] = &users.User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}
	f.mappings.rows[folded] = 5
	refresh := mintRefreshToken(t, 0, 7*24*time.Hour)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, refresh, "", time.Now().Add(7*24*time.Hour)))
	f.iam.validate = func(ctx context.Context, rt string) (*iamclient.ValidateResult, error) {
		// a fold-keyed identity has no numeric id in the payload either
		return &iamclient.ValidateResult{Valid: true, Payload: &iamclient.ValidatePayload{Email: "a@x.com", Name: "Alice"}}, nil
	}

	res := f.svc.Session(context.Background(), "", 5)
	assert.True(t, res.Valid)
	require.NotEmpty(t, res.AccessToken)

	claims, err := token.Parse(res.AccessToken, []byte(testSecret), token.AudienceAccess)
	require.NoError(t, err)
	assert.Equal(t, folded, claims.UserID)

	user, err := f.svc.ValidateAccessToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(5), user.ID)
}

func TestSession_IssuerRejectionPurgesRecord(t *testing.T) {
	f := newFixture(t)
	f.users.rows[5] = &users.User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, "stale", "", time.Now().Add(time.Hour)))
	f.iam.validate = func(ctx context.Context, rt string) (*iamclient.ValidateResult, error) {
		return &iamclient.ValidateResult{Valid: false}, nil
	}

	res := f.svc.Session(context.Background(), "", 5)
	assert.False(t, res.Valid)
	_, err := f.sessions.FindByLocalUserID(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSession_IssuerOutageKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.users.rows[5] = &users.User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, "rt", "", time.Now().Add(time.Hour)))
	f.iam.validate = func(ctx context.Context, rt string) (*iamclient.ValidateResult, error) {
		return nil, common.ErrServiceUnavailable
	}

	res := f.svc.Session(context.Background(), "", 5)
	assert.False(t, res.Valid)

	// a transient outage must not destroy the session
	_, err := f.sessions.FindByLocalUserID(context.Background(), 5)
	assert.NoError(t, err)
}

func TestSession_NoSignals(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Session(context.Background(), "", 0)
	assert.False(t, res.Valid)
	assert.Nil(t, res.User)
}

func TestRenewAccessToken_NoRecord(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RenewAccessToken(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrNoActiveSession)
}

func TestRenewAccessToken_ExpiredLocally(t *testing.T) {
	f := newFixture(t)
	expired := mintRefreshToken(t, 42, -time.Minute)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, expired, "", time.Now().Add(-time.Minute)))

	_, err := f.svc.RenewAccessToken(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	// the dead record is gone without an issuer round trip
	_, err = f.sessions.FindByLocalUserID(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRenewAccessToken_IssuerRejectionPurges(t *testing.T) {
	f := newFixture(t)
	refresh := mintRefreshToken(t, 42, 7*24*time.Hour)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, refresh, "", time.Now().Add(7*24*time.Hour)))
	f.iam.renew = func(ctx context.Context, rt string) (*iamclient.RenewResult, error) {
		return nil, common.ErrRefreshTokenInvalid
	}

	_, err := f.svc.RenewAccessToken(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrRefreshTokenInvalid)
	_, err = f.sessions.FindByLocalUserID(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRenewAccessToken_IssuerOutageMutatesNothing(t *testing.T) {
	f := newFixture(t)
	refresh := mintRefreshToken(t, 42, 7*24*time.Hour)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, refresh, "", time.Now().Add(7*24*time.Hour)))
	upsertsBefore := f.sessions.upserts
	f.iam.renew = func(ctx context.Context, rt string) (*iamclient.RenewResult, error) {
		return nil, common.ErrServiceUnavailable
	}

	_, err := f.svc.RenewAccessToken(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.Equal(t, upsertsBefore, f.sessions.upserts)
	assert.Zero(t, f.sessions.deletes)
}

func TestRenewAccessToken_NoRotation(t *testing.T) {
	f := newFixture(t)
	refresh := mintRefreshToken(t, 42, 7*24*time.Hour)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, refresh, "", time.Now().Add(7*24*time.Hour)))
	upsertsBefore := f.sessions.upserts
	f.iam.renew = func(ctx context.Context, rt string) (*iamclient.RenewResult, error) {
		return &iamclient.RenewResult{AccessToken: "new-access", ExpiresIn: 120, RefreshTokenUpdated: false}, nil
	}

	res, err := f.svc.RenewAccessToken(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "new-access", res.AccessToken)
	assert.False(t, res.RefreshTokenUpdated)
	assert.Equal(t, upsertsBefore, f.sessions.upserts)
}

func TestRenewAccessToken_FoldedIdentityReKeysToken(t *testing.T) {
	f := newFixture(t)
	folded := mappings.FoldExternalID("0c6d2a9e-7f42-4f0a-9f2a-1b8c2d3e4f50")
	f.users.rows[5] = &users.User{ID: 5, Email: "a@x.com", DisplayName: "Alice"}
	f.mappings.rows[folded] = 5
	refresh := mintRefreshToken(t, 0, 7*24*time.Hour)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, refresh, "", time.Now().Add(7*24*time.Hour)))
	issuerAccess := mintAccessToken(t, 0, 2*time.Minute)
	f.iam.renew = func(ctx context.Context, rt string) (*iamclient.RenewResult, error) {
		return &iamclient.RenewResult{AccessToken: issuerAccess, ExpiresIn: 120}, nil
	}

	res, err := f.svc.RenewAccessToken(context.Background(), 5)
	require.NoError(t, err)

	claims, err := token.Parse(res.AccessToken, []byte(testSecret), token.AudienceAccess)
	require.NoError(t, err)
	assert.Equal(t, folded, claims.UserID)

	user, err := f.svc.ValidateAccessToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(5), user.ID)
}

func TestRenewAccessToken_RotationReplacesStoredToken(t *testing.T) {
	f := newFixture(t)
	oldRefresh := mintRefreshToken(t, 42, 12*time.Hour)
	newRefresh := mintRefreshToken(t, 42, 7*24*time.Hour)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, oldRefresh, "", time.Now().Add(12*time.Hour)))
	f.iam.renew = func(ctx context.Context, rt string) (*iamclient.RenewResult, error) {
		return &iamclient.RenewResult{AccessToken: "new-access", RefreshToken: newRefresh, ExpiresIn: 120, RefreshTokenUpdated: true}, nil
	}

	res, err := f.svc.RenewAccessToken(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, res.RefreshTokenUpdated)

	rec, err := f.sessions.FindByLocalUserID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, newRefresh, rec.Token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), rec.ExpiresAt, time.Minute)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sessions.Upsert(context.Background(), 5, "rt", "", time.Now().Add(time.Hour)))

	require.NoError(t, f.svc.Logout(context.Background(), 5))
	_, err := f.sessions.FindByLocalUserID(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// idempotent
	require.NoError(t, f.svc.Logout(context.Background(), 5))
}
