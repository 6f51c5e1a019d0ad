package http

import (
	"net/http"

	domcart "example.com/framed-prints/internal/domain/cart"
	"example.com/framed-prints/internal/domain/pricing"
)

type updateSelectionRequest struct {
	PhotoID  *int64  `json:"photo_id" validate:"omitempty,gt=0"`
	Frame    *string `json:"frame"`
	Size     *string `json:"size"`
	Quantity *int64  `json:"quantity" validate:"omitempty,lte=10000"`
}

func (a *API) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	sel := a.cartSvc.Selection()
	if !sel.IsOpen() {
		handleDomainError(w, domcart.ErrNoSelection)
		return
	}
	writeJSON(w, http.StatusOK, mapSelection(sel))
}

// handleUpdateSelection opens a photo when photo_id is given (which resets
// the options to their defaults) and then applies the other fields.
func (a *API) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req updateSelectionRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var (
		frame pricing.Frame
		size  pricing.Size
		err   error
	)
	if req.Frame != nil {
		if frame, err = pricing.ParseFrame(*req.Frame); err != nil {
			handleDomainError(w, err)
			return
		}
	}
	if req.Size != nil {
		if size, err = pricing.ParseSize(*req.Size); err != nil {
			handleDomainError(w, err)
			return
		}
	}

	if req.PhotoID != nil {
		photo, err := a.catalogSvc.Photo(r.Context(), *req.PhotoID)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		a.cartSvc.OpenPhoto(photo)
	}

	sel := a.cartSvc.Selection()
	if req.Frame != nil {
		if sel, err = a.cartSvc.SetFrame(frame); err != nil {
			handleDomainError(w, err)
			return
		}
	}
	if req.Size != nil {
		if sel, err = a.cartSvc.SetSize(size); err != nil {
			handleDomainError(w, err)
			return
		}
	}
	if req.Quantity != nil {
		if sel, err = a.cartSvc.SetQuantity(*req.Quantity); err != nil {
			handleDomainError(w, err)
			return
		}
	}

	if !sel.IsOpen() {
		handleDomainError(w, domcart.ErrNoSelection)
		return
	}
	writeJSON(w, http.StatusOK, mapSelection(sel))
}

func (a *API) handleAddSelection(w http.ResponseWriter, r *http.Request) {
	line, err := a.cartSvc.AddSelection(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"line": mapLine(line),
		"cart": mapState(a.cartSvc.State()),
	})
}
