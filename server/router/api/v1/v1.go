// Package v1 is the admin panel REST API. Every route except login
// requires a bearer token issued by the login handler.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/oponexis/tirebot/internal/profile"
	"github.com/oponexis/tirebot/store"
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Secret:  secret,
		Profile: profile,
		Store:   store,
	}
}

func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/login", s.Login)

	authed := g.Group("", s.authMiddleware)

	authed.GET("/batches", s.ListTireBatches)
	authed.POST("/batches", s.CreateTireBatch)
	authed.GET("/batches/:id", s.GetTireBatch)
	authed.PATCH("/batches/:id", s.UpdateTireBatch)
	authed.DELETE("/batches/:id", s.DeleteTireBatch)

	authed.GET("/batches/:id/photos", s.ListTirePhotos)
	authed.POST("/photos/:id/main", s.SetMainTirePhoto)
	authed.DELETE("/photos/:id", s.DeleteTirePhoto)

	authed.GET("/batches/:id/movements", s.ListStockMovements)
	authed.POST("/batches/:id/movements", s.CreateStockMovement)
}
