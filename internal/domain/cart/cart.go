package cart

import "example.com/framed-prints/internal/domain/pricing"

// Line is one configured print in the cart. ID is zero until the store has
// persisted the line.
type Line struct {
	ID         int64
	PhotoID    string
	ImageURL   string
	ImageTitle string
	Frame      pricing.Frame
	Size       pricing.Size
	UnitPrice  int64
	Quantity   int64
}

// Identity is the merge key: two lines with the same identity are the same
// configuration and must share one row.
type Identity struct {
	PhotoID string
	Frame   pricing.Frame
	Size    pricing.Size
}

func (l Line) Identity() Identity {
	return Identity{PhotoID: l.PhotoID, Frame: l.Frame, Size: l.Size}
}

func (l Line) Subtotal() int64 {
	return pricing.LinePrice(l.UnitPrice, l.Quantity)
}

// MaxQuantity bounds a single line so line and cart totals stay well inside
// int64.
const MaxQuantity int64 = 10000

func (l Line) Validate() error {
	if l.Quantity < 1 || l.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if l.PhotoID == "" {
		return ErrInvalidLine
	}
	return nil
}

type Totals struct {
	Quantity int64
	Price    int64
}

// ComputeTotals is the only place totals are derived. It always walks the
// whole line set.
func ComputeTotals(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Quantity += l.Quantity
		t.Price += l.Subtotal()
	}
	return t
}

func FindByIdentity(lines []Line, id Identity) (Line, bool) {
	for _, l := range lines {
		if l.Identity() == id {
			return l, true
		}
	}
	return Line{}, false
}

func FindByID(lines []Line, id int64) (Line, bool) {
	for _, l := range lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

// Clone returns a copy safe to hand to readers.
func Clone(lines []Line) []Line {
	if lines == nil {
		return []Line{}
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
