package pricing

import "strings"

const BasePrice int64 = 100

type Frame string

const (
	FrameWood   Frame = "WOOD"
	FrameSilver Frame = "SILVER"
	FrameGold   Frame = "GOLD"
)

type Size string

const (
	SizeSmall  Size = "SMALL"
	SizeMedium Size = "MEDIUM"
	SizeLarge  Size = "LARGE"
)

var framePrices = map[Frame]int64{
	FrameWood:   0,
	FrameSilver: 50,
	FrameGold:   120,
}

var sizePrices = map[Size]int64{
	SizeSmall:  0,
	SizeMedium: 80,
	SizeLarge:  150,
}

func (f Frame) IsValid() bool {
	_, ok := framePrices[f]
	return ok
}

func (s Size) IsValid() bool {
	_, ok := sizePrices[s]
	return ok
}

// Price of the frame surcharge; unknown frames cost 0.
func (f Frame) Price() int64 {
	return framePrices[f]
}

// Price of the size surcharge; unknown sizes cost 0.
func (s Size) Price() int64 {
	return sizePrices[s]
}

// UnitPrice is the price of one print. It is total over its inputs: an unknown
// frame or size adds nothing on top of BasePrice.
func UnitPrice(frame Frame, size Size) int64 {
	return BasePrice + frame.Price() + size.Price()
}

func LinePrice(unitPrice, quantity int64) int64 {
	return unitPrice * quantity
}

func ParseFrame(s string) (Frame, error) {
	f := Frame(strings.ToUpper(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", ErrUnknownFrame
	}
	return f, nil
}

func ParseSize(s string) (Size, error) {
	sz := Size(strings.ToUpper(strings.TrimSpace(s)))
	if !sz.IsValid() {
		return "", ErrUnknownSize
	}
	return sz, nil
}

type FrameOption struct {
	Frame Frame
	Price int64
}

type SizeOption struct {
	Size  Size
	Price int64
}

type Options struct {
	BasePrice int64
	Frames    []FrameOption
	Sizes     []SizeOption
}

func Frames() []Frame {
	return []Frame{FrameWood, FrameSilver, FrameGold}
}

func Sizes() []Size {
	return []Size{SizeSmall, SizeMedium, SizeLarge}
}

// ListOptions returns the selectable frames and sizes in display order.
func ListOptions() Options {
	opts := Options{BasePrice: BasePrice}
	for _, f := range Frames() {
		opts.Frames = append(opts.Frames, FrameOption{Frame: f, Price: f.Price()})
	}
	for _, s := range Sizes() {
		opts.Sizes = append(opts.Sizes, SizeOption{Size: s, Price: s.Price()})
	}
	return opts
}
