package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oponexis/tirebot/store"
)

// TireBatch is the wire shape of a batch. Pointers mirror nullable
// columns so the panel can distinguish "unknown" from zero.
type TireBatch struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	RimDiameter       *int     `json:"rimDiameter"`
	Width             *int     `json:"width"`
	Height            *int     `json:"height"`
	Season            *string  `json:"season"`
	Brand             string   `json:"brand"`
	Model             string   `json:"model"`
	QuantityTotal     int      `json:"quantityTotal"`
	QuantityAvailable int      `json:"quantityAvailable"`
	PricePerSet       *float64 `json:"pricePerSet"`
	PricePerTire      *float64 `json:"pricePerTire"`
	ProductionYear    *int     `json:"productionYear"`
	LocationCode      string   `json:"locationCode"`
	Notes             string   `json:"notes"`
	OwnerName         string   `json:"ownerName"`
	OwnerPhone        string   `json:"ownerPhone"`
	PhotoNeedsUpdate  bool     `json:"photoNeedsUpdate"`
	MainPhotoURL      string   `json:"mainPhotoUrl,omitempty"`
	CreatedTs         int64    `json:"createdTs"`
	UpdatedTs         int64    `json:"updatedTs"`
}

type CreateTireBatchRequest struct {
	Type              string   `json:"type"`
	RimDiameter       *int     `json:"rimDiameter"`
	Width             *int     `json:"width"`
	Height            *int     `json:"height"`
	Season            *string  `json:"season"`
	Brand             string   `json:"brand"`
	Model             string   `json:"model"`
	QuantityTotal     int      `json:"quantityTotal"`
	QuantityAvailable *int     `json:"quantityAvailable"`
	PricePerSet       *float64 `json:"pricePerSet"`
	PricePerTire      *float64 `json:"pricePerTire"`
	ProductionYear    *int     `json:"productionYear"`
	LocationCode      string   `json:"locationCode"`
	Notes             string   `json:"notes"`
	OwnerName         string   `json:"ownerName"`
	OwnerPhone        string   `json:"ownerPhone"`
}

type UpdateTireBatchRequest struct {
	Type              *string  `json:"type"`
	RimDiameter       *int     `json:"rimDiameter"`
	Width             *int     `json:"width"`
	Height            *int     `json:"height"`
	Season            *string  `json:"season"`
	Brand             *string  `json:"brand"`
	Model             *string  `json:"model"`
	QuantityTotal     *int     `json:"quantityTotal"`
	QuantityAvailable *int     `json:"quantityAvailable"`
	PricePerSet       *float64 `json:"pricePerSet"`
	PricePerTire      *float64 `json:"pricePerTire"`
	ProductionYear    *int     `json:"productionYear"`
	LocationCode      *string  `json:"locationCode"`
	Notes             *string  `json:"notes"`
	OwnerName         *string  `json:"ownerName"`
	OwnerPhone        *string  `json:"ownerPhone"`
	PhotoNeedsUpdate  *bool    `json:"photoNeedsUpdate"`
}

type ListTireBatchesResponse struct {
	Batches []*TireBatch `json:"batches"`
	Total   int          `json:"total"`
}

func (s *APIV1Service) ListTireBatches(c echo.Context) error {
	find, err := findFromQuery(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	total, err := s.Store.CountTireBatches(ctx, find)
	if err != nil {
		slog.Error("failed to count batches", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list batches")
	}
	batches, err := s.Store.ListTireBatches(ctx, find)
	if err != nil {
		slog.Error("failed to list batches", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list batches")
	}

	response := &ListTireBatchesResponse{Batches: make([]*TireBatch, 0, len(batches)), Total: total}
	for _, batch := range batches {
		response.Batches = append(response.Batches, convertTireBatch(batch))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetTireBatch(c echo.Context) error {
	batch, err := s.Store.GetTireBatch(c.Request().Context(), c.Param("id"))
	if err != nil {
		slog.Error("failed to get batch", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get batch")
	}
	if batch == nil {
		return echo.NewHTTPError(http.StatusNotFound, "batch not found")
	}
	return c.JSON(http.StatusOK, convertTireBatch(batch))
}

func (s *APIV1Service) CreateTireBatch(c echo.Context) error {
	request := &CreateTireBatchRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	create, err := convertCreateTireBatchRequest(request)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	batch, err := s.Store.CreateTireBatch(c.Request().Context(), create)
	if err != nil {
		slog.Error("failed to create batch", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create batch")
	}
	return c.JSON(http.StatusOK, convertTireBatch(batch))
}

func (s *APIV1Service) UpdateTireBatch(c echo.Context) error {
	request := &UpdateTireBatchRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	update, err := convertUpdateTireBatchRequest(c.Param("id"), request)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	batch, err := s.Store.UpdateTireBatch(c.Request().Context(), update)
	if err != nil {
		slog.Error("failed to update batch", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update batch")
	}
	if batch == nil {
		return echo.NewHTTPError(http.StatusNotFound, "batch not found")
	}
	return c.JSON(http.StatusOK, convertTireBatch(batch))
}

func (s *APIV1Service) DeleteTireBatch(c echo.Context) error {
	if err := s.Store.DeleteTireBatch(c.Request().Context(), c.Param("id")); err != nil {
		slog.Error("failed to delete batch", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete batch")
	}
	return c.NoContent(http.StatusNoContent)
}

// findFromQuery maps the panel's list filters onto the store predicate.
func findFromQuery(c echo.Context) (*store.FindTireBatch, error) {
	find := &store.FindTireBatch{WithMainPhoto: true}

	if raw := c.QueryParam("type"); raw != "" {
		tireType := store.TireType(raw)
		if !tireType.IsValid() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid type")
		}
		find.Type = &tireType
	}
	if raw := c.QueryParam("season"); raw != "" {
		season := store.Season(raw)
		if !season.IsValid() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid season")
		}
		find.Season = &season
	}
	for param, target := range map[string]**int{
		"rimDiameter": &find.RimDiameter,
		"width":       &find.Width,
		"height":      &find.Height,
	} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
		}
		*target = &value
	}
	if raw := c.QueryParam("q"); raw != "" {
		find.TextQuery = &raw
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 || value > 200 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = value
	}
	find.Limit = &limit
	if raw := c.QueryParam("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		find.Offset = &value
	}
	return find, nil
}

func convertCreateTireBatchRequest(request *CreateTireBatchRequest) (*store.TireBatch, error) {
	tireType := store.TireType(request.Type)
	if !tireType.IsValid() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid type")
	}
	if request.QuantityTotal <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "quantityTotal must be positive")
	}
	season, err := convertSeason(request.Season)
	if err != nil {
		return nil, err
	}

	available := request.QuantityTotal
	if request.QuantityAvailable != nil {
		if *request.QuantityAvailable < 0 || *request.QuantityAvailable > request.QuantityTotal {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "quantityAvailable out of range")
		}
		available = *request.QuantityAvailable
	}

	return &store.TireBatch{
		Type:              tireType,
		RimDiameter:       request.RimDiameter,
		Width:             request.Width,
		Height:            request.Height,
		Season:            season,
		Brand:             request.Brand,
		Model:             request.Model,
		QuantityTotal:     request.QuantityTotal,
		QuantityAvailable: available,
		PricePerSet:       request.PricePerSet,
		PricePerTire:      request.PricePerTire,
		ProductionYear:    request.ProductionYear,
		LocationCode:      request.LocationCode,
		Notes:             request.Notes,
		OwnerName:         request.OwnerName,
		OwnerPhone:        request.OwnerPhone,
	}, nil
}

func convertUpdateTireBatchRequest(id string, request *UpdateTireBatchRequest) (*store.UpdateTireBatch, error) {
	update := &store.UpdateTireBatch{
		ID:                id,
		RimDiameter:       request.RimDiameter,
		Width:             request.Width,
		Height:            request.Height,
		Brand:             request.Brand,
		Model:             request.Model,
		QuantityTotal:     request.QuantityTotal,
		QuantityAvailable: request.QuantityAvailable,
		PricePerSet:       request.PricePerSet,
		PricePerTire:      request.PricePerTire,
		ProductionYear:    request.ProductionYear,
		LocationCode:      request.LocationCode,
		Notes:             request.Notes,
		OwnerName:         request.OwnerName,
		OwnerPhone:        request.OwnerPhone,
		PhotoNeedsUpdate:  request.PhotoNeedsUpdate,
	}
	if request.Type != nil {
		tireType := store.TireType(*request.Type)
		if !tireType.IsValid() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid type")
		}
		update.Type = &tireType
	}
	season, err := convertSeason(request.Season)
	if err != nil {
		return nil, err
	}
	update.Season = season
	if request.QuantityTotal != nil && *request.QuantityTotal < 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "quantityTotal must not be negative")
	}
	if request.QuantityAvailable != nil && *request.QuantityAvailable < 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "quantityAvailable must not be negative")
	}
	return update, nil
}

func convertSeason(raw *string) (*store.Season, error) {
	if raw == nil {
		return nil, nil
	}
	season := store.Season(*raw)
	if !season.IsValid() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid season")
	}
	return &season, nil
}

func convertTireBatch(batch *store.TireBatch) *TireBatch {
	converted := &TireBatch{
		ID:                batch.ID,
		Type:              string(batch.Type),
		RimDiameter:       batch.RimDiameter,
		Width:             batch.Width,
		Height:            batch.Height,
		Brand:             batch.Brand,
		Model:             batch.Model,
		QuantityTotal:     batch.QuantityTotal,
		QuantityAvailable: batch.QuantityAvailable,
		PricePerSet:       batch.PricePerSet,
		PricePerTire:      batch.PricePerTire,
		ProductionYear:    batch.ProductionYear,
		LocationCode:      batch.LocationCode,
		Notes:             batch.Notes,
		OwnerName:         batch.OwnerName,
		OwnerPhone:        batch.OwnerPhone,
		PhotoNeedsUpdate:  batch.PhotoNeedsUpdate,
		MainPhotoURL:      batch.MainPhotoURL,
		CreatedTs:         batch.CreatedTs,
		UpdatedTs:         batch.UpdatedTs,
	}
	if batch.Season != nil {
		season := string(*batch.Season)
		converted.Season = &season
	}
	return converted
}
