package dialog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oponexis/tirebot/store"
)

// stepSpec describes one step of the batch creation dialog: the prompt
// that asks for its value and the handler that validates the answer and
// merges it into the session data. handle returns a re-prompt message on
// bad input and "" on success; it must not touch data on failure.
type stepSpec struct {
	prompt   string
	keyboard [][]string
	handle   func(data *store.DialogData, text string) string
}

const createBatchStepCount = 10

var widthHeightRegexp = regexp.MustCompile(`(\d{3})\s*[/.]\s*(\d{2})`)

func isSkip(text string) bool {
	return text == "-" || strings.EqualFold(text, "brak")
}

// createBatchSteps is indexed by step number; index 0 is unused.
var createBatchSteps = [createBatchStepCount + 1]stepSpec{
	1: {
		prompt:   "OK, tworzymy nową partię opon.\n\nKrok 1/10: wybierz typ partii:",
		keyboard: typeKeyboard,
		handle: func(data *store.DialogData, text string) string {
			switch {
			case text == "Magazyn (sprzedaż)" || strings.EqualFold(text, "magazyn"):
				data.Type = store.TireTypeStock
			case text == "Przechowanie klienta" || strings.Contains(strings.ToLower(text), "przechowanie"):
				data.Type = store.TireTypeStorage
			default:
				return "Proszę wybrać jedną z opcji:\n• Magazyn (sprzedaż)\n• Przechowanie klienta"
			}
			return ""
		},
	},
	2: {
		prompt:   "Krok 2/10: podaj średnicę felgi (R), np. 16, 17, 18.",
		keyboard: cancelKeyboard,
		handle: func(data *store.DialogData, text string) string {
			n, err := strconv.Atoi(text)
			if err != nil || n < 10 || n > 30 {
				return "Nieprawidłowa średnica. Podaj liczbę, np. 16, 17, 18."
			}
			data.RimDiameter = &n
			return ""
		},
	},
	3: {
		prompt: "Krok 3/10: podaj szerokość i profil w formacie 205/55 (możesz wpisać samo 205 lub \"-\" aby pominąć).",
		handle: func(data *store.DialogData, text string) string {
			if isSkip(text) {
				data.Width = nil
				data.Height = nil
				return ""
			}
			if m := widthHeightRegexp.FindStringSubmatch(strings.ReplaceAll(text, ",", ".")); m != nil {
				width, _ := strconv.Atoi(m[1])
				height, _ := strconv.Atoi(m[2])
				data.Width = &width
				data.Height = &height
				return ""
			}
			if w, err := strconv.Atoi(text); err == nil && w >= 100 && w <= 400 {
				data.Width = &w
				data.Height = nil
				return ""
			}
			return "Nieprawidłowy format. Przykład: 205/55 lub 205. Możesz też wpisać \"-\" aby pominąć."
		},
	},
	4: {
		prompt:   "Krok 4/10: wybierz sezon:",
		keyboard: seasonKeyboard,
		handle: func(data *store.DialogData, text string) string {
			switch {
			case text == "Lato":
				season := store.SeasonSummer
				data.Season = &season
			case text == "Zima":
				season := store.SeasonWinter
				data.Season = &season
			case text == "Całoroczne":
				season := store.SeasonAllSeason
				data.Season = &season
			case text == "Pomiń" || isSkip(text):
				data.Season = nil
			default:
				return "Proszę wybrać: Lato / Zima / Całoroczne / Pomiń (lub \"-\")."
			}
			return ""
		},
	},
	5: {
		prompt: "Krok 5/10: podaj markę (np. Michelin). Możesz wpisać \"-\" aby pominąć.",
		handle: func(data *store.DialogData, text string) string {
			brand := text
			if text == "-" {
				brand = ""
			}
			data.Brand = &brand
			return ""
		},
	},
	6: {
		prompt: "Krok 6/10: podaj model (np. Pilot Sport 4). Możesz wpisać \"-\" aby pominąć.",
		handle: func(data *store.DialogData, text string) string {
			model := text
			if text == "-" {
				model = ""
			}
			data.Model = &model
			return ""
		},
	},
	7: {
		prompt: "Krok 7/10: podaj ilość całkowitą (np. 4). Ilość dostępna będzie domyślnie taka sama.",
		handle: func(data *store.DialogData, text string) string {
			n, err := strconv.Atoi(text)
			if err != nil || n <= 0 || n > 1000 {
				return "Nieprawidłowa ilość. Podaj dodatnią liczbę, np. 4."
			}
			data.QuantityTotal = &n
			data.QuantityAvailable = &n
			return ""
		},
	},
	8: {
		prompt: "Krok 8/10: podaj cenę (za komplet) w zł, np. 500. Możesz wpisać \"-\" jeśli nie chcesz teraz podawać.",
		handle: func(data *store.DialogData, text string) string {
			if isSkip(text) {
				data.PricePerSet = nil
				return ""
			}
			price, err := strconv.ParseFloat(text, 64)
			if err != nil || price < 0 {
				return "Nieprawidłowa cena. Podaj liczbę, np. 500 lub \"-\"."
			}
			data.PricePerSet = &price
			return ""
		},
	},
	9: {
		prompt: "Krok 9/10: podaj rok produkcji (np. 2021) lub \"-\" jeśli nieznany.",
		handle: func(data *store.DialogData, text string) string {
			if isSkip(text) {
				data.ProductionYear = nil
				return ""
			}
			year, err := strconv.Atoi(text)
			if err != nil || year < 1990 || year > 2050 {
				return "Nieprawidłowy rok. Podaj np. 2021 lub \"-\"."
			}
			data.ProductionYear = &year
			return ""
		},
	},
	10: {
		prompt: "Opcjonalnie: podaj lokalizację na magazynie (np. A-3-2) lub \"-\" aby pominąć.",
		handle: func(data *store.DialogData, text string) string {
			location := text
			if isSkip(text) {
				location = ""
			}
			data.LocationCode = &location
			return ""
		},
	},
}
