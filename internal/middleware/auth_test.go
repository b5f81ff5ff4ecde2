package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"prompt-library-backend/internal/database/dbtest"
	"prompt-library-backend/internal/models"
	"prompt-library-backend/internal/services"
	"prompt-library-backend/internal/utils"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := dbtest.NewStore(t)
	client, _ := dbtest.NewRedis(t)
	tokens := utils.NewTokenManager("test_secret", time.Hour)
	authService := services.NewAuthService(services.NewUserService(store, client), tokens, services.NewTokenDenylist(client))
	authn := NewAuthenticator(authService)

	user := dbtest.CreateUser(t, store, "Tester", "tester@example.com")

	// Helper to generate test tokens
	generateTestToken := func(userID string, expired bool) string {
		exp := time.Now().Add(time.Hour)
		if expired {
			exp = time.Now().Add(-time.Hour)
		}
		claims := utils.Claims{
			UserID:           userID,
			Role:             "user",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		}
		tString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test_secret"))
		require.NoError(t, err)
		return tString
	}

	revoked := generateTestToken(user.ID, false)
	require.NoError(t, services.NewTokenDenylist(client).Add(context.Background(), revoked, time.Hour))

	tests := []struct {
		name             string
		authHeader       string
		requiredStatus   int
		requiredError    string
		optionalIdentity string
	}{
		{
			name:           "Missing Authorization Header",
			requiredStatus: http.StatusUnauthorized,
			requiredError:  "Access token required",
		},
		{
			name:           "Invalid Token Format",
			authHeader:     "InvalidToken",
			requiredStatus: http.StatusUnauthorized,
			requiredError:  "Access token required",
		},
		{
			name:           "Invalid Token Signature",
			authHeader:     "Bearer invalid.token.signature",
			requiredStatus: http.StatusUnauthorized,
			requiredError:  "Invalid or expired token",
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + generateTestToken(user.ID, true),
			requiredStatus: http.StatusUnauthorized,
			requiredError:  "Invalid or expired token",
		},
		{
			name:           "Unknown User",
			authHeader:     "Bearer " + generateTestToken("ghost", false),
			requiredStatus: http.StatusUnauthorized,
			requiredError:  "User not found",
		},
		{
			name:           "Revoked Token",
			authHeader:     "Bearer " + revoked,
			requiredStatus: http.StatusUnauthorized,
			requiredError:  "Token has been revoked",
		},
		{
			name:             "Valid Token",
			authHeader:       "Bearer " + generateTestToken(user.ID, false),
			requiredStatus:   http.StatusOK,
			optionalIdentity: user.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			whoami := func(c *gin.Context) {
				id := "anonymous"
				if uid := CurrentUserID(c); uid != nil {
					id = *uid
				}
				c.String(http.StatusOK, id)
			}
			r.GET("/required", authn.RequireAuth(), whoami)
			r.GET("/optional", authn.OptionalAuth(), whoami)

			do := func(path string) *httptest.ResponseRecorder {
				req, _ := http.NewRequest(http.MethodGet, path, nil)
				if tt.authHeader != "" {
					req.Header.Set("Authorization", tt.authHeader)
				}
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				return w
			}

			w := do("/required")
			assert.Equal(t, tt.requiredStatus, w.Code)
			if tt.requiredStatus != http.StatusOK {
				var resp utils.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.requiredError, resp.Error)
			} else {
				assert.Equal(t, tt.optionalIdentity, w.Body.String())
			}

			w = do("/optional")
			assert.Equal(t, http.StatusOK, w.Code, "optional auth never fails the request")
			want := tt.optionalIdentity
			if want == "" {
				want = "anonymous"
			}
			assert.Equal(t, want, w.Body.String())
		})
	}
}

func TestRequireAuthReusesOptionalIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// A nil service would panic if RequireAuth tried to verify again.
	authn := NewAuthenticator(nil)
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		SetUser(c, &models.User{ID: "preset", Name: "Preset"})
		c.Next()
	}, authn.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, *CurrentUserID(c))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preset", w.Body.String())
}
