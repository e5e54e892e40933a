package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/oponexis/tirebot/store"
)

type StockMovement struct {
	ID        string `json:"id"`
	BatchID   string `json:"batchId"`
	Type      string `json:"type"`
	Amount    int    `json:"amount"`
	Reason    string `json:"reason"`
	CreatedTs int64  `json:"createdTs"`
}

type CreateStockMovementRequest struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

type ListStockMovementsResponse struct {
	Movements []*StockMovement `json:"movements"`
}

func (s *APIV1Service) ListStockMovements(c echo.Context) error {
	batchID := c.Param("id")
	movements, err := s.Store.ListStockMovements(c.Request().Context(), &store.FindStockMovement{BatchID: &batchID})
	if err != nil {
		slog.Error("failed to list movements", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list movements")
	}

	response := &ListStockMovementsResponse{Movements: make([]*StockMovement, 0, len(movements))}
	for _, movement := range movements {
		response.Movements = append(response.Movements, convertStockMovement(movement))
	}
	return c.JSON(http.StatusOK, response)
}

// CreateStockMovement posts a ledger entry against a batch. Overdrawing
// the batch is a client error, not a server one.
func (s *APIV1Service) CreateStockMovement(c echo.Context) error {
	request := &CreateStockMovementRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	create, err := convertCreateStockMovementRequest(c.Param("id"), request)
	if err != nil {
		return err
	}

	movement, err := s.Store.CreateStockMovement(c.Request().Context(), create)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			return echo.NewHTTPError(http.StatusBadRequest, "movement exceeds available quantity")
		}
		slog.Error("failed to create movement", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create movement")
	}
	return c.JSON(http.StatusOK, convertStockMovement(movement))
}

func convertCreateStockMovementRequest(batchID string, request *CreateStockMovementRequest) (*store.StockMovement, error) {
	movementType := store.MovementType(request.Type)
	if !movementType.IsValid() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid movement type")
	}
	if request.Amount <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}
	return &store.StockMovement{
		BatchID: batchID,
		Type:    movementType,
		Amount:  request.Amount,
		Reason:  request.Reason,
	}, nil
}

func convertStockMovement(movement *store.StockMovement) *StockMovement {
	return &StockMovement{
		ID:        movement.ID,
		BatchID:   movement.BatchID,
		Type:      string(movement.Type),
		Amount:    movement.Amount,
		Reason:    movement.Reason,
		CreatedTs: movement.CreatedTs,
	}
}
