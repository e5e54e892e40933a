package store

import "github.com/pkg/errors"

// MovementType classifies a ledger entry. IN increases the available
// quantity; OUT, SCRAP and MOVE decrease it.
type MovementType string

const (
	MovementTypeIn    MovementType = "IN"
	MovementTypeOut   MovementType = "OUT"
	MovementTypeScrap MovementType = "SCRAP"
	MovementTypeMove  MovementType = "MOVE"
)

// IsValid checks if the movement type is valid.
func (m MovementType) IsValid() bool {
	switch m {
	case MovementTypeIn, MovementTypeOut, MovementTypeScrap, MovementTypeMove:
		return true
	default:
		return false
	}
}

// Outbound returns true for movement types that decrease availability.
func (m MovementType) Outbound() bool {
	return m == MovementTypeOut || m == MovementTypeScrap || m == MovementTypeMove
}

// ErrInsufficientStock is returned when an outbound movement would make the
// available quantity negative.
var ErrInsufficientStock = errors.New("movement exceeds available quantity")

// StockMovement is one row of the per-batch movement ledger. Posting a
// movement adjusts TireBatch.QuantityAvailable in the same transaction.
type StockMovement struct {
	ID        string
	BatchID   string
	Type      MovementType
	Amount    int
	Reason    string
	CreatedTs int64
}

type FindStockMovement struct {
	BatchID *string
	Limit   *int
}
