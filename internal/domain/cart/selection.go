package cart

import "example.com/framed-prints/internal/domain/pricing"

// Selection is the configuration being edited for the photo currently open.
type Selection struct {
	PhotoID    string
	ImageURL   string
	ImageTitle string
	Frame      pricing.Frame
	Size       pricing.Size
	Quantity   int64
}

type Quote struct {
	UnitPrice  int64
	OrderPrice int64
}

func NewSelection(photoID, imageURL, imageTitle string) Selection {
	return Selection{
		PhotoID:    photoID,
		ImageURL:   imageURL,
		ImageTitle: imageTitle,
		Frame:      pricing.FrameWood,
		Size:       pricing.SizeSmall,
		Quantity:   1,
	}
}

func (s Selection) Quote() Quote {
	unit := pricing.UnitPrice(s.Frame, s.Size)
	return Quote{
		UnitPrice:  unit,
		OrderPrice: pricing.LinePrice(unit, s.Quantity),
	}
}

func (s Selection) IsOpen() bool {
	return s.PhotoID != ""
}
