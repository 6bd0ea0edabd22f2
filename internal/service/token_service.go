package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/resource-gateway/internal/auth"
	"github.com/spec-kit/resource-gateway/internal/config"
	"github.com/spec-kit/resource-gateway/internal/domain"
	"github.com/spec-kit/resource-gateway/internal/events"
)

// Grant failure modes, all terminal for the current request.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrWrongTokenKind       = errors.New("wrong token kind")
	ErrRefreshExpired       = errors.New("refresh token expired")
	ErrInvalidToken         = errors.New("invalid token")
)

// GrantRequest carries the fields of a token grant request.
type GrantRequest struct {
	GrantType    domain.GrantType
	Username     string
	Password     string
	RefreshToken string
}

// TokenPair is the result of a successful grant.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenService orchestrates the password and refresh grants.
type TokenService struct {
	codec      *auth.TokenCodec
	verifier   CredentialVerifier
	dispatcher events.Dispatcher
	accessTTL  time.Duration
	refreshTTL time.Duration
	grants     map[domain.GrantType]struct{}
}

// NewTokenService builds the service from the validated OAuth configuration.
func NewTokenService(cfg config.OAuthConfig, codec *auth.TokenCodec, verifier CredentialVerifier, dispatcher events.Dispatcher) *TokenService {
	grants := make(map[domain.GrantType]struct{}, len(cfg.GrantTypes))
	for _, g := range cfg.GrantTypes {
		grants[domain.GrantType(g)] = struct{}{}
	}
	return &TokenService{
		codec:      codec,
		verifier:   verifier,
		dispatcher: dispatcher,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		grants:     grants,
	}
}

// Grant dispatches on grant type. Disabled or unknown grant types are
// rejected before the verifier or codec are touched.
func (s *TokenService) Grant(ctx context.Context, req GrantRequest) (*TokenPair, error) {
	if _, ok := s.grants[req.GrantType]; !ok {
		return nil, ErrUnsupportedGrantType
	}
	switch req.GrantType {
	case domain.GrantTypePassword:
		return s.passwordGrant(ctx, req.Username, req.Password)
	case domain.GrantTypeRefresh:
		return s.refreshGrant(ctx, req.RefreshToken)
	default:
		return nil, ErrUnsupportedGrantType
	}
}

func (s *TokenService) passwordGrant(ctx context.Context, username, password string) (*TokenPair, error) {
	subject, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.publish(ctx, events.Event{
				Type:    events.EventLoginFailed,
				Payload: events.LoginFailedPayload{Username: username, Reason: "invalid credentials"},
			})
		}
		return nil, err
	}

	pair, err := s.issuePair(subject)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.EventLoginSucceeded, Subject: subject})
	return pair, nil
}

func (s *TokenService) refreshGrant(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.codec.Decode(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrInvalidToken
	}
	if token.Kind != domain.TokenKindRefresh {
		return nil, ErrWrongTokenKind
	}

	// Rotation: a refresh grant issues a fresh refresh token alongside the
	// access token. Tokens are stateless, so the presented one stays valid
	// until its own expiry; rotation still caps the useful lifetime of any
	// single leaked refresh token.
	pair, err := s.issuePair(token.Subject)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.EventTokenRefreshed, Subject: token.Subject})
	return pair, nil
}

func (s *TokenService) issuePair(subject string) (*TokenPair, error) {
	access, accessExp, err := s.codec.Encode(subject, domain.TokenKindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.codec.Encode(subject, domain.TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		ExpiresIn:        int64(s.accessTTL / time.Second),
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
