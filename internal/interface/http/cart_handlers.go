package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"example.com/framed-prints/internal/domain/pricing"
	cartuc "example.com/framed-prints/internal/usecase/cart"
)

var (
	errInvalidLineID    = errors.New("invalid line id")
	errStreamNotSupport = errors.New("streaming not supported")
)

type addCartItemRequest struct {
	PhotoID    string `json:"photo_id" validate:"required,max=64"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
	ImageTitle string `json:"image_title" validate:"max=512"`
	Frame      string `json:"frame" validate:"required"`
	Size       string `json:"size" validate:"required"`
	// Missing or non-positive quantities count as one.
	Quantity int64 `json:"quantity" validate:"lte=10000"`
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapState(a.cartSvc.State()))
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	frame, err := pricing.ParseFrame(req.Frame)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	size, err := pricing.ParseSize(req.Size)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	line, err := a.cartSvc.AddToBasket(r.Context(), cartuc.AddRequest{
		PhotoID:    req.PhotoID,
		ImageURL:   req.ImageURL,
		ImageTitle: req.ImageTitle,
		Frame:      frame,
		Size:       size,
		Quantity:   req.Quantity,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"line": mapLine(line),
		"cart": mapState(a.cartSvc.State()),
	})
}

func (a *API) handleIncreaseCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidLineID)
		return
	}

	line, err := a.cartSvc.Increase(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"line": mapLine(line),
		"cart": mapState(a.cartSvc.State()),
	})
}

func (a *API) handleDecreaseCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidLineID)
		return
	}

	line, err := a.cartSvc.Decrease(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"line":    mapLine(line),
		"removed": line.Quantity == 0,
		"cart":    mapState(a.cartSvc.State()),
	})
}

func (a *API) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidLineID)
		return
	}

	if err := a.cartSvc.Remove(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapState(a.cartSvc.State()))
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := a.cartSvc.Clear(r.Context()); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapState(a.cartSvc.State()))
}

func (a *API) handleReloadCart(w http.ResponseWriter, r *http.Request) {
	if err := a.cartSvc.Refresh(r.Context()); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapState(a.cartSvc.State()))
}

// handleCartEvents streams every published cart state as a server-sent
// event, starting with the current one.
func (a *API) handleCartEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, errStreamNotSupport)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for st := range a.cartSvc.Subscribe(r.Context()) {
		payload, err := json.Marshal(mapState(st))
		if err != nil {
			a.log.Error("encode cart event", zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", st.Version, payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
