package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/oponexis/tirebot/store"
)

func TestConvertCreateTireBatchRequest(t *testing.T) {
	season := "WINTER"
	request := &CreateTireBatchRequest{
		Type:          "STOCK",
		Season:        &season,
		Brand:         "Michelin",
		QuantityTotal: 4,
	}

	create, err := convertCreateTireBatchRequest(request)
	require.NoError(t, err)
	require.Equal(t, store.TireTypeStock, create.Type)
	require.Equal(t, store.SeasonWinter, *create.Season)
	require.Equal(t, 4, create.QuantityTotal)
	// Availability defaults to the full batch.
	require.Equal(t, 4, create.QuantityAvailable)
}

func TestConvertCreateTireBatchRequestRejects(t *testing.T) {
	badSeason := "SPRING"
	three := 3
	ten := 10

	for name, request := range map[string]*CreateTireBatchRequest{
		"invalid type":        {Type: "RENTAL", QuantityTotal: 4},
		"zero quantity":       {Type: "STOCK", QuantityTotal: 0},
		"invalid season":      {Type: "STOCK", QuantityTotal: 4, Season: &badSeason},
		"available too large": {Type: "STOCK", QuantityTotal: 3, QuantityAvailable: &ten},
	} {
		_, err := convertCreateTireBatchRequest(request)
		require.Error(t, err, name)
	}

	request := &CreateTireBatchRequest{Type: "STORAGE", QuantityTotal: 4, QuantityAvailable: &three}
	create, err := convertCreateTireBatchRequest(request)
	require.NoError(t, err)
	require.Equal(t, 3, create.QuantityAvailable)
}

func TestConvertUpdateTireBatchRequest(t *testing.T) {
	tireType := "STORAGE"
	brand := "Continental"
	request := &UpdateTireBatchRequest{Type: &tireType, Brand: &brand}

	update, err := convertUpdateTireBatchRequest("batch-1", request)
	require.NoError(t, err)
	require.Equal(t, "batch-1", update.ID)
	require.Equal(t, store.TireTypeStorage, *update.Type)
	require.Equal(t, "Continental", *update.Brand)
	require.Nil(t, update.QuantityTotal)

	badType := "RENTAL"
	_, err = convertUpdateTireBatchRequest("batch-1", &UpdateTireBatchRequest{Type: &badType})
	require.Error(t, err)

	negative := -1
	_, err = convertUpdateTireBatchRequest("batch-1", &UpdateTireBatchRequest{QuantityAvailable: &negative})
	require.Error(t, err)
}

func TestFindFromQuery(t *testing.T) {
	newContext := func(query string) echo.Context {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/batches?"+query, nil)
		return e.NewContext(req, httptest.NewRecorder())
	}

	find, err := findFromQuery(newContext("type=STOCK&season=SUMMER&rimDiameter=16&q=michelin&limit=20&offset=40"))
	require.NoError(t, err)
	require.Equal(t, store.TireTypeStock, *find.Type)
	require.Equal(t, store.SeasonSummer, *find.Season)
	require.Equal(t, 16, *find.RimDiameter)
	require.Equal(t, "michelin", *find.TextQuery)
	require.Equal(t, 20, *find.Limit)
	require.Equal(t, 40, *find.Offset)
	require.True(t, find.WithMainPhoto)

	find, err = findFromQuery(newContext(""))
	require.NoError(t, err)
	require.Nil(t, find.Type)
	require.Equal(t, 50, *find.Limit)

	for _, query := range []string{"type=RENTAL", "season=SPRING", "rimDiameter=abc", "limit=0", "limit=9999", "offset=-1"} {
		_, err := findFromQuery(newContext(query))
		require.Error(t, err, query)
	}
}

func TestConvertStockMovementRequest(t *testing.T) {
	create, err := convertCreateStockMovementRequest("batch-1", &CreateStockMovementRequest{
		Type:   "OUT",
		Amount: 2,
		Reason: "sprzedaż",
	})
	require.NoError(t, err)
	require.Equal(t, "batch-1", create.BatchID)
	require.Equal(t, store.MovementTypeOut, create.Type)
	require.Equal(t, 2, create.Amount)

	_, err = convertCreateStockMovementRequest("batch-1", &CreateStockMovementRequest{Type: "LOST", Amount: 1})
	require.Error(t, err)
	_, err = convertCreateStockMovementRequest("batch-1", &CreateStockMovementRequest{Type: "IN", Amount: 0})
	require.Error(t, err)
}
