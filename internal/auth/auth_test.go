package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser(roles ...auth.Role) *auth.UserContext {
	return &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Ayşe Yılmaz Demir",
		Email:       "ayse@sitetrack.local",
		Roles:       roles,
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, "procurement-api", time.Hour)
	user := testUser(auth.RoleSiteManager, auth.RoleWorker)

	token, err := tokens.Generate(user)
	require.NoError(t, err)

	got, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)
	assert.Equal(t, user.DisplayName, got.DisplayName)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.Roles, got.Roles)
}

func TestTokenManager_Rejects(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, "procurement-api", time.Hour)
	user := testUser(auth.RoleWorker)

	otherSecret, err := auth.NewTokenManager("another-secret-another-secret!!", "procurement-api", time.Hour).Generate(user)
	require.NoError(t, err)
	otherIssuer, err := auth.NewTokenManager(testSecret, "someone-else", time.Hour).Generate(user)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID.String(),
			Issuer:    "procurement-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    "procurement-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badSubjectToken, err := badSubject.SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret":  otherSecret,
		"wrong issuer":  otherIssuer,
		"expired":       expiredToken,
		"bad subject":   badSubjectToken,
		"garbage":       "not.a.token",
		"empty":         "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Validate(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}

	_, err = auth.NewTokenManager("", "", 0).Validate(otherSecret)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestUserContext_Roles(t *testing.T) {
	worker := testUser(auth.RoleWorker)
	assert.False(t, worker.IsPrivileged())
	assert.True(t, worker.HasAnyRole(auth.RoleWorker, auth.RoleProcurement))
	assert.False(t, worker.HasAnyRole(auth.RoleProcurement))

	keeper := testUser(auth.RoleWarehouseKeeper)
	assert.True(t, keeper.IsPrivileged())

	admin := testUser(auth.RoleAdmin)
	assert.True(t, admin.HasAnyRole(auth.RoleProcurement))
	assert.True(t, admin.IsPrivileged())

	assert.Equal(t, []string{"warehouse_keeper"}, keeper.RolesAsStrings())
}

func TestUserContext_Initials(t *testing.T) {
	tests := map[string]string{
		"Ayşe Yılmaz Demir": "AY",
		"ömer":              "Ö",
		"  ":                "",
		"John  Smith":       "JS",
	}
	for name, want := range tests {
		assert.Equal(t, want, (&auth.UserContext{DisplayName: name}).Initials(), name)
	}
}

func TestActor(t *testing.T) {
	id, name := auth.Actor(context.Background())
	assert.Equal(t, auth.SystemUserID, id)
	assert.Equal(t, "System", name)

	user := testUser(auth.RoleWorker)
	id, name = auth.Actor(auth.WithUserContext(context.Background(), user))
	assert.Equal(t, user.UserID, id)
	assert.Equal(t, user.DisplayName, name)
}

func newTestMiddleware(apiKey string) (*auth.Middleware, *auth.TokenManager) {
	tokens := auth.NewTokenManager(testSecret, "procurement-api", time.Hour)
	return auth.NewMiddleware(tokens, apiKey, zap.NewNop()), tokens
}

func captureUser(captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	middleware, _ := newTestMiddleware("test-api-key-12345")
	var user *auth.UserContext
	handler := middleware.Authenticate(captureUser(&user))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	req.Header.Set("x-api-key", "test-api-key-12345")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, user)
	assert.Equal(t, auth.SystemUserID, user.UserID)
	assert.True(t, user.HasRole(auth.RoleSystem))
}

func TestMiddleware_Authenticate_WithBearerToken(t *testing.T) {
	middleware, tokens := newTestMiddleware("")
	issued := testUser(auth.RoleWarehouseKeeper)
	token, err := tokens.Generate(issued)
	require.NoError(t, err)

	var user *auth.UserContext
	handler := middleware.Authenticate(captureUser(&user))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, user)
	assert.Equal(t, issued.UserID, user.UserID)
}

func TestMiddleware_Authenticate_Rejects(t *testing.T) {
	middleware, _ := newTestMiddleware("")

	tests := []struct {
		name   string
		header string
		value  string
	}{
		{name: "no credentials"},
		{name: "api key when none is configured", header: "x-api-key", value: "anything"},
		{name: "basic auth", header: "Authorization", value: "Basic dXNlcjpwYXNz"},
		{name: "invalid token", header: "Authorization", value: "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, called)
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	middleware, _ := newTestMiddleware("")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := middleware.RequireRole(auth.RoleProcurement, auth.RoleSiteManager)(ok)

	tests := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{name: "no user", want: http.StatusForbidden},
		{name: "worker", user: testUser(auth.RoleWorker), want: http.StatusForbidden},
		{name: "site manager", user: testUser(auth.RoleSiteManager), want: http.StatusOK},
		{name: "admin", user: testUser(auth.RoleAdmin), want: http.StatusOK},
		{name: "system", user: testUser(auth.RoleSystem), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
