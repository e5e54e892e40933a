package store

// DialogMode selects which conversation flow owns the session.
type DialogMode string

const (
	DialogModeCreateBatch  DialogMode = "CREATE_BATCH"
	DialogModeUploadPhotos DialogMode = "UPLOAD_PHOTOS"
	DialogModeSearch       DialogMode = "SEARCH"
)

// IsValid checks if the dialog mode is valid.
func (m DialogMode) IsValid() bool {
	switch m {
	case DialogModeCreateBatch, DialogModeUploadPhotos, DialogModeSearch:
		return true
	default:
		return false
	}
}

// DialogData accumulates partially validated fields collected across steps.
// Persisted as a JSON blob; nil fields were either skipped by the user or
// not asked yet — both end up as NULL on the created batch.
type DialogData struct {
	BatchID           string   `json:"batchId,omitempty"`
	Type              TireType `json:"type,omitempty"`
	RimDiameter       *int     `json:"rimDiameter,omitempty"`
	Width             *int     `json:"width,omitempty"`
	Height            *int     `json:"height,omitempty"`
	Season            *Season  `json:"season,omitempty"`
	Brand             *string  `json:"brand,omitempty"`
	Model             *string  `json:"model,omitempty"`
	QuantityTotal     *int     `json:"quantityTotal,omitempty"`
	QuantityAvailable *int     `json:"quantityAvailable,omitempty"`
	PricePerSet       *float64 `json:"pricePerSet,omitempty"`
	ProductionYear    *int     `json:"productionYear,omitempty"`
	LocationCode      *string  `json:"locationCode,omitempty"`
}

// DialogSession is one persisted conversational state for a (user, chat)
// pair. At most one session per pair is active at any instant; the drivers
// enforce this with deactivate-then-create inside one transaction.
// Inactive sessions are retained as history and are never revived.
type DialogSession struct {
	ID        int64
	UID       string
	UserID    string
	ChatID    string
	Mode      DialogMode
	Step      int
	Data      DialogData
	IsActive  bool
	CreatedTs int64
	UpdatedTs int64
}

// StartDialogSession atomically replaces the active session for a
// (user, chat) pair: every active session is deactivated first, then the
// new one is created, all in one transaction.
type StartDialogSession struct {
	UserID string
	ChatID string
	Mode   DialogMode
	Step   int
	Data   DialogData
}

// UpdateDialogSession carries a partial update; nil fields are left untouched.
type UpdateDialogSession struct {
	ID       int64
	Mode     *DialogMode
	Step     *int
	Data     *DialogData
	IsActive *bool
}

// DeactivateDialogSessions deactivates every active session for a
// (user, chat) pair.
type DeactivateDialogSessions struct {
	UserID string
	ChatID string
}
