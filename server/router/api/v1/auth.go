package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// accessTokenDuration is how long an admin login stays valid.
const accessTokenDuration = 7 * 24 * time.Hour

const adminSubject = "admin"

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges the admin password for a signed access token. There is
// a single admin identity; its bcrypt hash comes from configuration.
func (s *APIV1Service) Login(c echo.Context) error {
	request := &LoginRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if s.Profile.AdminPasswordHash == "" {
		return echo.NewHTTPError(http.StatusForbidden, "admin login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.Profile.AdminPasswordHash), []byte(request.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
	}

	token, err := generateAccessToken(s.Secret, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, &LoginResponse{AccessToken: token})
}

func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		if err := validateAccessToken(s.Secret, token); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		return next(c)
	}
}

func generateAccessToken(secret string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenDuration)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func validateAccessToken(secret, tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if claims.Subject != adminSubject {
		return jwt.ErrTokenInvalidSubject
	}
	return nil
}
