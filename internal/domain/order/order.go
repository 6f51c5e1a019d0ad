package order

import (
	"fmt"
	"strings"
	"time"

	domcart "example.com/framed-prints/internal/domain/cart"
)

const DefaultSubject = "Order of framed prints"

type Entry struct {
	PhotoID    string
	ImageTitle string
	Size       string
	Frame      string
	UnitPrice  int64
	Quantity   int64
	Subtotal   int64
}

type Summary struct {
	Reference     string
	Subject       string
	CreatedAt     time.Time
	Entries       []Entry
	TotalQuantity int64
	TotalPrice    int64
}

// Compose builds the summary for the given lines. Totals are recomputed from
// the lines rather than trusted from the caller.
func Compose(reference string, createdAt time.Time, lines []domcart.Line) (*Summary, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	totals := domcart.ComputeTotals(lines)
	s := &Summary{
		Reference:     reference,
		Subject:       DefaultSubject,
		CreatedAt:     createdAt,
		Entries:       make([]Entry, 0, len(lines)),
		TotalQuantity: totals.Quantity,
		TotalPrice:    totals.Price,
	}
	for _, l := range lines {
		s.Entries = append(s.Entries, Entry{
			PhotoID:    l.PhotoID,
			ImageTitle: l.ImageTitle,
			Size:       string(l.Size),
			Frame:      string(l.Frame),
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
			Subtotal:   l.Subtotal(),
		})
	}
	return s, nil
}

func (s *Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s (%s)\n", s.Reference, s.CreatedAt.UTC().Format(time.RFC3339))
	b.WriteString("The following framed prints are ordered:\n\n")
	for _, e := range s.Entries {
		fmt.Fprintf(&b, "Title: %s\nPhoto id: %s\nSize: %s\nFrame: %s\nPrice: %d\nQuantity: %d\nSubtotal: %d\n\n",
			e.ImageTitle, e.PhotoID, e.Size, e.Frame, e.UnitPrice, e.Quantity, e.Subtotal)
	}
	fmt.Fprintf(&b, "Number of prints: %d\nTotal price: %d\n", s.TotalQuantity, s.TotalPrice)
	return b.String()
}
