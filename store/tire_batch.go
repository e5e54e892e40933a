package store

// TireType is the ownership mode of a batch: for-sale inventory vs
// customer-owned stored tires.
type TireType string

const (
	TireTypeStock   TireType = "STOCK"
	TireTypeStorage TireType = "STORAGE"
)

// IsValid checks if the tire type is valid.
func (t TireType) IsValid() bool {
	return t == TireTypeStock || t == TireTypeStorage
}

// Season is the tire season classification.
type Season string

const (
	SeasonSummer    Season = "SUMMER"
	SeasonWinter    Season = "WINTER"
	SeasonAllSeason Season = "ALL_SEASON"
)

// IsValid checks if the season is valid.
func (s Season) IsValid() bool {
	return s == SeasonSummer || s == SeasonWinter || s == SeasonAllSeason
}

// TireBatch is a lot of tires of uniform size/brand/model tracked as one
// inventory unit.
type TireBatch struct {
	ID   string
	Type TireType

	// Size. Width/height may be unknown for odd lots.
	RimDiameter *int
	Width       *int
	Height      *int

	Season *Season
	Brand  string
	Model  string

	QuantityTotal     int
	QuantityAvailable int

	PricePerSet    *float64
	PricePerTire   *float64
	ProductionYear *int

	LocationCode string
	Notes        string

	// Owner contact, used for STORAGE batches only.
	OwnerName  string
	OwnerPhone string

	// PhotoNeedsUpdate is set when the batch shrank or lost all photos and
	// its pictures no longer reflect the physical stack.
	PhotoNeedsUpdate bool

	CreatedTs int64
	UpdatedTs int64

	// MainPhotoURL is populated by ListTireBatches when FindTireBatch.WithMainPhoto
	// is set. Empty when the batch has no main photo.
	MainPhotoURL string
}

// SearchToken is one token of a guided-search query. Numeric tokens are
// ambiguous between rim/width/height/production year and match all four.
type SearchToken struct {
	Number *int
	Text   string
}

// FindTireBatch is the tiered predicate shape consumed by ListTireBatches.
// All set fields are ANDed together; TextQuery and Tokens each expand into an
// OR group. Results are ordered by creation time, descending.
type FindTireBatch struct {
	ID          *string
	Type        *TireType
	RimDiameter *int
	Width       *int
	Height      *int
	Season      *Season

	// TextQuery matches brand, model, notes and location code
	// case-insensitively as one OR group.
	TextQuery *string

	// Tokens is the broad per-token OR predicate of the guided search:
	// each numeric token matches rim/width/height/year, each word token
	// matches the text columns.
	Tokens []SearchToken

	WithMainPhoto bool
	Limit         *int
	Offset        *int
}

// UpdateTireBatch carries a partial update; nil fields are left untouched.
type UpdateTireBatch struct {
	ID                string
	Type              *TireType
	RimDiameter       *int
	Width             *int
	Height            *int
	Season            *Season
	Brand             *string
	Model             *string
	QuantityTotal     *int
	QuantityAvailable *int
	PricePerSet       *float64
	PricePerTire      *float64
	ProductionYear    *int
	LocationCode      *string
	Notes             *string
	OwnerName         *string
	OwnerPhone        *string
	PhotoNeedsUpdate  *bool
}
