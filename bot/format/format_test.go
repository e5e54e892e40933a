package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oponexis/tirebot/store"
)

func sampleBatch() *store.TireBatch {
	width, height, rim := 205, 55, 16
	winter := store.SeasonWinter
	pricePerSet := 500.0
	year := 2020
	return &store.TireBatch{
		ID:                "b1",
		Type:              store.TireTypeStock,
		Width:             &width,
		Height:            &height,
		RimDiameter:       &rim,
		Season:            &winter,
		Brand:             "Michelin",
		Model:             "Pilot Sport 4",
		QuantityTotal:     4,
		QuantityAvailable: 3,
		PricePerSet:       &pricePerSet,
		ProductionYear:    &year,
		LocationCode:      "A-3-2",
	}
}

func TestLabels(t *testing.T) {
	batch := sampleBatch()

	require.Equal(t, "205/55 R16", SizeLabel(batch))
	require.Equal(t, "Zima", SeasonLabel(batch.Season))
	require.Equal(t, "Sezon: —", SeasonLabel(nil))
	require.Equal(t, "Michelin Pilot Sport 4", BrandModel(batch))
	require.Equal(t, "500 zł za komplet", PriceLabel(batch))
	require.Equal(t, "3/4 szt.", QuantityLabel(batch))
	require.Equal(t, "A-3-2", Location(batch))
	require.Equal(t, "205/55 R16 | Zima | Michelin Pilot Sport 4 | rok 2020", Title(batch))
	require.Equal(t, "3/4 szt. · 500 zł za komplet · 2020", EntryDescription(batch))
}

func TestLabelsEmptyBatch(t *testing.T) {
	batch := &store.TireBatch{}

	require.Equal(t, "", SizeLabel(batch))
	require.Equal(t, "—", BrandModel(batch))
	require.Equal(t, "—", PriceLabel(batch))
	require.Equal(t, "0 szt.", QuantityLabel(batch))
	require.Equal(t, "—", Location(batch))
	require.Equal(t, "Sezon: — | —", Title(batch))
}

func TestPricePerTireFallback(t *testing.T) {
	pricePerTire := 125.5
	batch := &store.TireBatch{PricePerTire: &pricePerTire}
	require.Equal(t, "125.5 zł za szt.", PriceLabel(batch))
}

func TestMessageText(t *testing.T) {
	batch := sampleBatch()
	text := MessageText(batch, "https://panel.example.com/batches/b1")
	require.Equal(t,
		"205/55 R16 | Zima\n"+
			"Michelin Pilot Sport 4 (2020)\n\n"+
			"Ilość: 3/4 szt.\n"+
			"Cena: 500 zł za komplet\n"+
			"Lokalizacja: A-3-2\n\n"+
			"Pełna karta: https://panel.example.com/batches/b1",
		text)

	batch.MainPhotoURL = "https://cdn.example.com/p.jpg"
	text = MessageText(batch, "https://panel.example.com/batches/b1")
	require.True(t, len(text) > 0)
	require.Equal(t, "https://cdn.example.com/p.jpg", text[:len(batch.MainPhotoURL)])
}

func TestSummaryDescription(t *testing.T) {
	width, height, rim := 205, 55, 16
	winter := store.SeasonWinter

	require.Equal(t, "205/55 R16, zima · magazyn (sprzedaż)", SummaryDescription(&width, &height, &rim, &winter))
	require.Equal(t, "R16 · magazyn (sprzedaż)", SummaryDescription(nil, nil, &rim, nil))
	require.Equal(t, "205 · magazyn (sprzedaż)", SummaryDescription(&width, nil, nil, nil))
	require.Equal(t, "Filtr: magazyn (sprzedaż)", SummaryDescription(nil, nil, nil, nil))
}
