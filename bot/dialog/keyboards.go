package dialog

// Main menu button labels. The transport layer matches incoming text
// against these and renders the keyboards below as reply markup.
const (
	ButtonNewBatch = "➕ Nowa partia"
	ButtonStock    = "📦 Magazyn (sprzedaż)"
	ButtonStorage  = "📥 Magazyn (przechowanie)"
	ButtonSearch   = "🔍 Szukaj"
	ButtonCancel   = "✖️ Anuluj"
)

var MainMenuKeyboard = [][]string{
	{ButtonNewBatch},
	{ButtonStock, ButtonStorage},
	{ButtonSearch},
	{ButtonCancel},
}

var cancelKeyboard = [][]string{
	{ButtonCancel},
}

var typeKeyboard = [][]string{
	{"Magazyn (sprzedaż)"},
	{"Przechowanie klienta"},
	{ButtonCancel},
}

var seasonKeyboard = [][]string{
	{"Lato"},
	{"Zima"},
	{"Całoroczne"},
	{"Pomiń"},
	{ButtonCancel},
}

// searchKeyboard puts the cancel button on top of the main menu so the
// search dialog can be left or driven from the same screen.
var searchKeyboard = append([][]string{{ButtonCancel}}, MainMenuKeyboard...)
