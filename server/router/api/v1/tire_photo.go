package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oponexis/tirebot/store"
)

type TirePhoto struct {
	ID        string `json:"id"`
	BatchID   string `json:"batchId"`
	URL       string `json:"url"`
	IsMain    bool   `json:"isMain"`
	CreatedTs int64  `json:"createdTs"`
}

type ListTirePhotosResponse struct {
	Photos []*TirePhoto `json:"photos"`
}

func (s *APIV1Service) ListTirePhotos(c echo.Context) error {
	batchID := c.Param("id")
	photos, err := s.Store.ListTirePhotos(c.Request().Context(), &store.FindTirePhoto{BatchID: &batchID})
	if err != nil {
		slog.Error("failed to list photos", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list photos")
	}

	response := &ListTirePhotosResponse{Photos: make([]*TirePhoto, 0, len(photos))}
	for _, photo := range photos {
		response.Photos = append(response.Photos, convertTirePhoto(photo))
	}
	return c.JSON(http.StatusOK, response)
}

// SetMainTirePhoto promotes a photo to be the batch's main photo,
// demoting whichever held the flag before.
func (s *APIV1Service) SetMainTirePhoto(c echo.Context) error {
	photo, err := s.Store.SetMainTirePhoto(c.Request().Context(), c.Param("id"))
	if err != nil {
		slog.Error("failed to set main photo", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to set main photo")
	}
	if photo == nil {
		return echo.NewHTTPError(http.StatusNotFound, "photo not found")
	}
	return c.JSON(http.StatusOK, convertTirePhoto(photo))
}

func (s *APIV1Service) DeleteTirePhoto(c echo.Context) error {
	if err := s.Store.DeleteTirePhoto(c.Request().Context(), c.Param("id")); err != nil {
		slog.Error("failed to delete photo", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete photo")
	}
	return c.NoContent(http.StatusNoContent)
}

func convertTirePhoto(photo *store.TirePhoto) *TirePhoto {
	return &TirePhoto{
		ID:        photo.ID,
		BatchID:   photo.BatchID,
		URL:       photo.URL,
		IsMain:    photo.IsMain,
		CreatedTs: photo.CreatedTs,
	}
}
