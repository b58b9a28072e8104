package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/config"
)

type Config struct {
	Mode Mode

	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Implicit []byte
}

type Manager struct {
	cfg   Config
	keys  Keys
	parse paseto.Parser
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Mode != keys.Mode {
		return nil, ErrConfig{Key: "mode", Msg: "does not match the loaded keys"}
	}
	if cfg.Issuer == "" {
		return nil, ErrConfig{Key: "issuer", Msg: "required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Key: "audience", Msg: "required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}

	// expiry is checked in Verify so it can report ErrExpired
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))

	return &Manager{cfg: cfg, keys: keys, parse: p}, nil
}

// NewPasetoManager creates a manager from the authentication section of the
// app config.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto

	keys, err := KeysFromConfig(p)
	if err != nil {
		return nil, err
	}
	if !keys.CanIssue() {
		return nil, ErrConfig{Key: "secret_key_hex", Msg: "the API issues tokens and needs the secret key"}
	}

	return New(Config{
		Mode:       Mode(p.Mode),
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
}

func (m *Manager) AccessTTL() time.Duration  { return m.cfg.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

func (m *Manager) IssueAccess(sub Subject) (string, error) {
	return m.issue(TokenTypeAccess, sub, m.cfg.AccessTTL)
}

func (m *Manager) IssueRefresh(sub Subject) (string, error) {
	return m.issue(TokenTypeRefresh, sub, m.cfg.RefreshTTL)
}

// VerifyAccess verifies tokenStr and requires an access token bound to a
// session.
func (m *Manager) VerifyAccess(tokenStr string) (*Claims, error) {
	return m.verifyType(tokenStr, TokenTypeAccess)
}

// VerifyRefresh is VerifyAccess for refresh tokens.
func (m *Manager) VerifyRefresh(tokenStr string) (*Claims, error) {
	return m.verifyType(tokenStr, TokenTypeRefresh)
}

func (m *Manager) verifyType(tokenStr string, want TokenType) (*Claims, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrInvalidToken{Err: fmt.Errorf("%w: got %s, want %s", ErrWrongType, claims.Type, want)}
	}
	if claims.SessionID == uuid.Nil {
		return nil, ErrInvalidToken{Err: fmt.Errorf("no session id")}
	}
	return claims, nil
}

// Verify checks signature or encryption, issuer, audience and expiry.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	var (
		tok *paseto.Token
		err error
	)

	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "no symmetric key loaded"}
		}
		tok, err = m.parse.ParseV4Local(*m.keys.Symmetric, tokenStr, m.cfg.Implicit)
	case ModePublic:
		if m.keys.Public == nil {
			return nil, ErrConfig{Msg: "no public key loaded"}
		}
		tok, err = m.parse.ParseV4Public(*m.keys.Public, tokenStr, m.cfg.Implicit)
	default:
		return nil, ErrConfig{Msg: "unknown mode"}
	}
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := extractClaims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	if claims.IsExpired() {
		return nil, ErrInvalidToken{Err: fmt.Errorf("%w at %s", ErrExpired, claims.ExpiresAt.Format(time.RFC3339))}
	}
	claims.Issuer, claims.Audience = m.cfg.Issuer, m.cfg.Audience
	return claims, nil
}

func (m *Manager) issue(tt TokenType, sub Subject, ttl time.Duration) (string, error) {
	now := time.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(randHex(16))
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))
	tok.SetSubject(sub.UserID.String())

	tok.SetString("typ", string(tt))
	tok.SetString("uid", sub.UserID.String())
	tok.SetString("sid", sub.SessionID.String())
	tok.SetString("role", sub.Role)

	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return "", ErrConfig{Msg: "no symmetric key loaded"}
		}
		return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), nil
	case ModePublic:
		if m.keys.Secret == nil {
			return "", ErrConfig{Msg: "verify-only keys cannot issue tokens"}
		}
		return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
	default:
		return "", ErrConfig{Msg: "unknown mode"}
	}
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func extractClaims(tok *paseto.Token) (*Claims, error) {
	jti, err := tok.GetJti()
	if err != nil {
		return nil, err
	}
	iat, err := tok.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	exp, err := tok.GetExpiration()
	if err != nil {
		return nil, err
	}

	out := &Claims{TokenID: jti, IssuedAt: iat, ExpiresAt: exp}

	typ, err := tok.GetString("typ")
	if err != nil {
		return nil, err
	}
	out.Type = TokenType(typ)

	if out.UserID, err = uuidClaim(tok, "uid"); err != nil {
		return nil, err
	}
	if out.SessionID, err = uuidClaim(tok, "sid"); err != nil {
		return nil, err
	}
	if out.Role, err = tok.GetString("role"); err != nil {
		return nil, err
	}
	return out, nil
}

func uuidClaim(tok *paseto.Token, key string) (uuid.UUID, error) {
	s, err := tok.GetString(key)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}
