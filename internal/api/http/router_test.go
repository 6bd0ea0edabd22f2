package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/resource-gateway/internal/api/dto"
	"github.com/spec-kit/resource-gateway/internal/api/http/handlers"
	"github.com/spec-kit/resource-gateway/internal/auth"
	"github.com/spec-kit/resource-gateway/internal/config"
	"github.com/spec-kit/resource-gateway/internal/domain"
	"github.com/spec-kit/resource-gateway/internal/events"
	"github.com/spec-kit/resource-gateway/internal/observability"
	"github.com/spec-kit/resource-gateway/internal/persistence"
	"github.com/spec-kit/resource-gateway/internal/registry"
	"github.com/spec-kit/resource-gateway/internal/service"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, username, password string) (string, error) {
	if username == "alice" && password == "s3cret" {
		return "user-42", nil
	}
	return "", service.ErrInvalidCredentials
}

type staticResource struct {
	desc    domain.ResourceDescriptor
	content string
}

func (r staticResource) Describe() domain.ResourceDescriptor          { return r.desc }
func (r staticResource) Read(context.Context, string) (string, error) { return r.content, nil }

type testEnv struct {
	app        *fiber.App
	codec      *auth.TokenCodec
	dispatcher events.Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	oauthCfg := config.OAuthConfig{
		ClientID:               "gateway-client",
		ClientSecret:           "gateway-secret",
		TokenSecretKey:         "test-signing-key",
		TokenAlgorithm:         "HS256",
		AccessTokenExpireMins:  30,
		RefreshTokenExpireDays: 30,
		GrantTypes:             []string{"password", "refresh_token"},
	}

	codec, err := auth.NewTokenCodec(oauthCfg.TokenSecretKey, oauthCfg.TokenAlgorithm)
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	tokenService := service.NewTokenService(oauthCfg, codec, stubVerifier{}, dispatcher)
	clients := auth.NewClientAuthenticator(oauthCfg.ClientID, oauthCfg.ClientSecret)

	logger := zap.NewNop()
	reg := registry.New(logger)
	reg.Register(staticResource{
		desc: domain.ResourceDescriptor{
			Name:     "greeting",
			URI:      "data://greetings/hello",
			MimeType: "text/plain",
		},
		content: "hello",
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:     handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Token:      handlers.NewTokenHandler(tokenService, clients),
		Resources:  handlers.NewResourcesHandler(reg, dispatcher),
		AccessGate: auth.NewMiddleware(codec, logger),
	})

	return &testEnv{app: app, codec: codec, dispatcher: dispatcher}
}

func (e *testEnv) postToken(t *testing.T, payload map[string]string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/oauth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (e *testEnv) login(t *testing.T) dto.TokenResponse {
	t.Helper()
	status, body := e.postToken(t, map[string]string{
		"grant_type": "password",
		"username":   "alice",
		"password":   "s3cret",
	}, nil)
	require.Equal(t, fiber.StatusOK, status)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var tokens dto.TokenResponse
	require.NoError(t, json.Unmarshal(raw, &tokens))
	return tokens
}

func (e *testEnv) get(t *testing.T, path, bearer string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestLogin_PasswordGrant(t *testing.T) {
	env := newTestEnv(t)

	tokens := env.login(t)
	require.Equal(t, "bearer", tokens.TokenType)
	require.EqualValues(t, 1800, tokens.ExpiresIn)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	decoded, err := env.codec.Decode(tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-42", decoded.Subject)
	require.Equal(t, domain.TokenKindAccess, decoded.Kind)
}

func TestLogin_InvalidCredentialsAreOpaque(t *testing.T) {
	env := newTestEnv(t)

	wrongPassword, bodyA := env.postToken(t, map[string]string{
		"grant_type": "password",
		"username":   "alice",
		"password":   "wrong",
	}, nil)
	unknownUser, bodyB := env.postToken(t, map[string]string{
		"grant_type": "password",
		"username":   "mallory",
		"password":   "wrong",
	}, nil)

	require.Equal(t, fiber.StatusUnauthorized, wrongPassword)
	require.Equal(t, fiber.StatusUnauthorized, unknownUser)
	// the response must not reveal whether the username existed
	require.Equal(t, bodyA, bodyB)
}

func TestLogin_UnsupportedGrantType(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.postToken(t, map[string]string{
		"grant_type": "client_credentials",
	}, nil)
	require.Equal(t, fiber.StatusBadRequest, status)

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "UNSUPPORTED_GRANT_TYPE", errObj["code"])
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.postToken(t, map[string]string{"grant_type": "password"}, nil)
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = env.postToken(t, map[string]string{"grant_type": "refresh_token"}, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestLogin_ClientBasicAuth(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{
		"grant_type": "password",
		"username":   "alice",
		"password":   "s3cret",
	}

	good := "Basic " + base64.StdEncoding.EncodeToString([]byte("gateway-client:gateway-secret"))
	status, _ := env.postToken(t, payload, map[string]string{"Authorization": good})
	require.Equal(t, fiber.StatusOK, status)

	bad := "Basic " + base64.StdEncoding.EncodeToString([]byte("gateway-client:nope"))
	status, body := env.postToken(t, payload, map[string]string{"Authorization": bad})
	require.Equal(t, fiber.StatusUnauthorized, status)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestProtectedResources_AccessTokenLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.login(t)

	status, body := env.get(t, "/resources", tokens.AccessToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, body, "data://greetings/hello")

	status, body = env.get(t, "/resources/content?uri=data://greetings/hello", tokens.AccessToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "hello", body)

	// no token, refresh token, and stale access token are all rejected alike
	status, _ = env.get(t, "/resources", "")
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = env.get(t, "/resources", tokens.RefreshToken)
	require.Equal(t, fiber.StatusUnauthorized, status)

	stale, _, err := env.codec.Encode("user-42", domain.TokenKindAccess, -31*time.Minute)
	require.NoError(t, err)
	status, _ = env.get(t, "/resources", stale)
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestProtectedResources_UnknownURI(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.login(t)

	status, _ := env.get(t, "/resources/content?uri=data://other/thing", tokens.AccessToken)
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = env.get(t, "/resources/content", tokens.AccessToken)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestRefreshGrant_RenewsAccess(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.login(t)

	status, body := env.postToken(t, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": tokens.RefreshToken,
	}, nil)
	require.Equal(t, fiber.StatusOK, status)

	renewedAccess, ok := body["access_token"].(string)
	require.True(t, ok)
	rotatedRefresh, ok := body["refresh_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, rotatedRefresh)

	getStatus, _ := env.get(t, "/resources", renewedAccess)
	require.Equal(t, fiber.StatusOK, getStatus)

	decoded, err := env.codec.Decode(renewedAccess)
	require.NoError(t, err)
	require.Equal(t, "user-42", decoded.Subject)
}

func TestRefreshGrant_RejectsAccessTokenAndExpired(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.login(t)

	status, _ := env.postToken(t, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": tokens.AccessToken,
	}, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	expired, _, err := env.codec.Encode("user-42", domain.TokenKindRefresh, -24*time.Hour)
	require.NoError(t, err)
	status, body := env.postToken(t, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": expired,
	}, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "refresh token expired", errObj["message"])
}

func TestResourceRead_EmitsAuditEvent(t *testing.T) {
	env := newTestEnv(t)

	var reads []events.Event
	env.dispatcher.Subscribe(events.EventResourceRead, func(_ context.Context, e events.Event) error {
		reads = append(reads, e)
		return nil
	})

	tokens := env.login(t)
	status, _ := env.get(t, "/resources/content?uri=data://greetings/hello", tokens.AccessToken)
	require.Equal(t, fiber.StatusOK, status)

	require.Len(t, reads, 1)
	require.Equal(t, "user-42", reads[0].Subject)
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/health/live", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, body, "alive")
}
