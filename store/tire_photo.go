package store

// TirePhoto belongs to exactly one batch. At most one photo per batch has
// IsMain set; the drivers enforce this on every write that touches the flag.
type TirePhoto struct {
	ID        string
	BatchID   string
	URL       string
	IsMain    bool
	CreatedTs int64
}

type FindTirePhoto struct {
	ID      *string
	BatchID *string
	IsMain  *bool
	Limit   *int
}
