// Package format renders batch fields into the Polish labels used by the
// bot's messages and inline answers.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oponexis/tirebot/store"
)

// SizeLabel renders "205/55 R16", a partial form when only some size
// fields are set, or "" when the batch carries no size at all.
func SizeLabel(batch *store.TireBatch) string {
	parts := []string{}
	if batch.Width != nil && batch.Height != nil {
		parts = append(parts, fmt.Sprintf("%d/%d", *batch.Width, *batch.Height))
	}
	if batch.RimDiameter != nil {
		parts = append(parts, fmt.Sprintf("R%d", *batch.RimDiameter))
	}
	return strings.Join(parts, " ")
}

func SeasonLabel(season *store.Season) string {
	if season == nil {
		return "Sezon: —"
	}
	switch *season {
	case store.SeasonSummer:
		return "Lato"
	case store.SeasonWinter:
		return "Zima"
	case store.SeasonAllSeason:
		return "Całoroczne"
	}
	return string(*season)
}

func BrandModel(batch *store.TireBatch) string {
	parts := []string{}
	if batch.Brand != "" {
		parts = append(parts, batch.Brand)
	}
	if batch.Model != "" {
		parts = append(parts, batch.Model)
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, " ")
}

func PriceLabel(batch *store.TireBatch) string {
	if batch.PricePerSet != nil {
		return number(*batch.PricePerSet) + " zł za komplet"
	}
	if batch.PricePerTire != nil {
		return number(*batch.PricePerTire) + " zł za szt."
	}
	return "—"
}

func QuantityLabel(batch *store.TireBatch) string {
	if batch.QuantityTotal > 0 {
		return fmt.Sprintf("%d/%d szt.", batch.QuantityAvailable, batch.QuantityTotal)
	}
	return fmt.Sprintf("%d szt.", batch.QuantityAvailable)
}

func Location(batch *store.TireBatch) string {
	if batch.LocationCode == "" {
		return "—"
	}
	return batch.LocationCode
}

// Title builds the one-line inline result title.
func Title(batch *store.TireBatch) string {
	parts := []string{}
	for _, part := range []string{SizeLabel(batch), SeasonLabel(batch.Season), BrandModel(batch)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if batch.ProductionYear != nil {
		parts = append(parts, fmt.Sprintf("rok %d", *batch.ProductionYear))
	}
	if len(parts) == 0 {
		return "Partia opon"
	}
	return strings.Join(parts, " | ")
}

// EntryDescription is the short second line under an inline result title.
func EntryDescription(batch *store.TireBatch) string {
	description := QuantityLabel(batch) + " · " + PriceLabel(batch)
	if batch.ProductionYear != nil {
		description += fmt.Sprintf(" · %d", *batch.ProductionYear)
	}
	return description
}

// MessageText is the full card sent when an inline result is picked. The
// main photo URL leads so the chat client renders a preview.
func MessageText(batch *store.TireBatch, panelURL string) string {
	sizeLabel := SizeLabel(batch)
	if sizeLabel == "" {
		sizeLabel = "Rozmiar: —"
	}
	yearLabel := ""
	if batch.ProductionYear != nil {
		yearLabel = fmt.Sprintf(" (%d)", *batch.ProductionYear)
	}

	text := sizeLabel + " | " + SeasonLabel(batch.Season) + "\n" +
		BrandModel(batch) + yearLabel + "\n\n" +
		"Ilość: " + QuantityLabel(batch) + "\n" +
		"Cena: " + PriceLabel(batch) + "\n" +
		"Lokalizacja: " + Location(batch) + "\n\n" +
		"Pełna karta: " + panelURL

	if batch.MainPhotoURL != "" {
		text = batch.MainPhotoURL + "\n\n" + text
	}
	return text
}

func TypeLabel(t store.TireType) string {
	if t == store.TireTypeStock {
		return "Magazyn (sprzedaż)"
	}
	return "Przechowanie klienta"
}

// SearchResultLine renders one numbered row of a search dialog answer,
// prefixed with the batch ownership mode.
func SearchResultLine(index int, batch *store.TireBatch, panelURL string) string {
	sizeLabel := SizeLabel(batch)
	if sizeLabel == "" {
		sizeLabel = "—"
	}
	return fmt.Sprintf("%d) [%s] %s | %s | %s\n", index, TypeLabel(batch.Type), sizeLabel, SeasonLabel(batch.Season), BrandModel(batch)) +
		fmt.Sprintf("   Ilość: %s, Cena: %s, Lokalizacja: %s\n", QuantityLabel(batch), PriceLabel(batch), Location(batch)) +
		fmt.Sprintf("   Karta: %s\n\n", panelURL)
}

// SummaryLine renders one numbered row of the synthetic summary entry.
func SummaryLine(index int, batch *store.TireBatch, panelURL string) string {
	sizeLabel := SizeLabel(batch)
	if sizeLabel == "" {
		sizeLabel = "—"
	}
	yearLabel := ""
	if batch.ProductionYear != nil {
		yearLabel = fmt.Sprintf(" (%d)", *batch.ProductionYear)
	}
	return fmt.Sprintf("%d) %s | %s | %s%s\n", index, sizeLabel, SeasonLabel(batch.Season), BrandModel(batch), yearLabel) +
		fmt.Sprintf("   Ilość: %s, Cena: %s, Lokalizacja: %s\n", QuantityLabel(batch), PriceLabel(batch), Location(batch)) +
		fmt.Sprintf("   Karta: %s\n\n", panelURL)
}

// SummaryDescription names the filter that produced a summary entry.
func SummaryDescription(width, height, rimDiameter *int, season *store.Season) string {
	parts := []string{}
	if width != nil && height != nil && rimDiameter != nil {
		parts = append(parts, fmt.Sprintf("%d/%d R%d", *width, *height, *rimDiameter))
	} else if rimDiameter != nil {
		parts = append(parts, fmt.Sprintf("R%d", *rimDiameter))
	} else if width != nil {
		parts = append(parts, strconv.Itoa(*width))
	}
	if season != nil {
		switch *season {
		case store.SeasonWinter:
			parts = append(parts, "zima")
		case store.SeasonSummer:
			parts = append(parts, "lato")
		case store.SeasonAllSeason:
			parts = append(parts, "całoroczne")
		}
	}
	if len(parts) == 0 {
		return "Filtr: magazyn (sprzedaż)"
	}
	return strings.Join(parts, ", ") + " · magazyn (sprzedaż)"
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
