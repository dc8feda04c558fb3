package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grammarheroes/backend/internal/data/repos/player"
	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

// CredentialRevoker invalidates all outstanding credentials for a provider
// account after a newer login wins arbitration. Revocation is best-effort;
// failures are logged and the login proceeds.
type CredentialRevoker interface {
	RevokeSessions(ctx context.Context, providerUID string) error
}

// Session is an accepted credential bound to its player row.
type Session struct {
	Player    *types.Player
	IssueTime int64
}

// SessionService verifies bearer tokens and arbitrates the single active
// session per player: last login wins, older credentials are terminated.
type SessionService interface {
	Authenticate(ctx context.Context, token string) (*Session, error)
}

type sessionService struct {
	db      *gorm.DB
	log     *logger.Logger
	players player.PlayerRepo
	secret  []byte
	revoker CredentialRevoker
}

// NewSessionService builds the session arbiter. revoker may be nil when no
// provider-side revocation is configured.
func NewSessionService(db *gorm.DB, baseLog *logger.Logger, players player.PlayerRepo, secret string, revoker CredentialRevoker) SessionService {
	return &sessionService{
		db:      db,
		log:     baseLog.With("service", "SessionService"),
		players: players,
		secret:  []byte(secret),
		revoker: revoker,
	}
}

type sessionClaims struct {
	AuthTime *int64 `json:"auth_time,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate verifies the token, resolves (creating on first login) the
// player, and claims session authority for the token's issue time. A token
// older than the recorded authority is rejected as terminated.
func (s *sessionService) Authenticate(ctx context.Context, token string) (*Session, error) {
	uid, issueTime, email, err := s.verify(token)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.players.GetByProviderUID(dbc, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p, err = s.createPlayer(dbc, uid, email)
		if err != nil {
			return nil, err
		}
	}

	prior := p.ActiveSessionAuthTime

	claimed, err := s.players.ClaimSession(dbc, p.ID, issueTime)
	if err != nil {
		return nil, err
	}
	if claimed {
		if prior != nil && *prior < issueTime {
			s.revoke(ctx, uid)
		}
		return &Session{Player: p, IssueTime: issueTime}, nil
	}

	// The guarded update did not fire: the recorded authority is not older
	// than ours. Re-read to tell a continuing session from a superseded one.
	cur, err := s.players.GetByID(dbc, p.ID)
	if err != nil {
		return nil, err
	}
	if cur == nil || cur.ActiveSessionAuthTime == nil {
		return nil, apierr.Unauthorized(errors.New("session arbitration failed"))
	}
	if *cur.ActiveSessionAuthTime == issueTime {
		return &Session{Player: cur, IssueTime: issueTime}, nil
	}
	return nil, apierr.SessionTerminated()
}

func (s *sessionService) verify(token string) (uid string, issueTime int64, email string, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", 0, "", apierr.Unauthorized(errors.New("missing bearer token"))
	}

	var claims sessionClaims
	parsed, perr := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if perr != nil || !parsed.Valid {
		return "", 0, "", apierr.Unauthorized(fmt.Errorf("invalid token: %w", perr))
	}

	uid = claims.Subject
	issueTime = credentialIssueTime(&claims)
	if uid == "" || issueTime == 0 {
		return "", 0, "", apierr.Unauthorized(errors.New("token missing subject or issue time"))
	}
	return uid, issueTime, claims.Email, nil
}

// credentialIssueTime prefers the provider's auth_time claim (the moment of
// interactive login) over iat, which moves on every token refresh.
func credentialIssueTime(c *sessionClaims) int64 {
	if c.AuthTime != nil && *c.AuthTime > 0 {
		return *c.AuthTime
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Unix()
	}
	return 0
}

func (s *sessionService) createPlayer(dbc dbctx.Context, uid, email string) (*types.Player, error) {
	if email == "" {
		email = fmt.Sprintf("%s@players.invalid", uid)
	}
	p := &types.Player{
		ID:          uuid.New(),
		ProviderUID: uid,
		Email:       email,
	}
	if err := s.players.Create(dbc, p); err != nil {
		return nil, err
	}
	// A concurrent first login may have won the insert; the re-read returns
	// whichever row landed.
	created, err := s.players.GetByProviderUID(dbc, uid)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, errors.New("player create raced and vanished")
	}
	s.log.Info("created player", "player_id", created.ID, "provider_uid", uid)
	return created, nil
}

func (s *sessionService) revoke(ctx context.Context, uid string) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.RevokeSessions(ctx, uid); err != nil {
		s.log.Warn("credential revocation failed", "provider_uid", uid, "error", err)
	}
}
