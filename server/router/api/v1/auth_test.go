package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oponexis/tirebot/internal/profile"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := generateAccessToken("secret", time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, validateAccessToken("secret", token))
	require.Error(t, validateAccessToken("other-secret", token))
	require.Error(t, validateAccessToken("secret", "not-a-token"))
}

func TestAccessTokenExpiry(t *testing.T) {
	issued := time.Now().Add(-accessTokenDuration - time.Hour)
	token, err := generateAccessToken("secret", issued)
	require.NoError(t, err)

	require.Error(t, validateAccessToken("secret", token))
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	service := &APIV1Service{
		Secret:  "secret",
		Profile: &profile.Profile{AdminPasswordHash: string(hash)},
	}

	login := func(body string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := service.Login(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec
	}

	rec := login(`{"password":"hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "accessToken")

	rec = login(`{"password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	service.Profile.AdminPasswordHash = ""
	rec = login(`{"password":"hunter2"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	service := &APIV1Service{Secret: "secret"}
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	call := func(authorization string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
		if authorization != "" {
			req.Header.Set(echo.HeaderAuthorization, authorization)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := service.authMiddleware(next)(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, call("").Code)
	require.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	token, err := generateAccessToken("secret", time.Now())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, call("Bearer "+token).Code)
}
