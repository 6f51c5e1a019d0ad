package http

import (
	"net/http"

	authuc "example.com/framed-prints/internal/usecase/auth"
)

type startSessionRequest struct {
	DeviceID string `json:"device_id" validate:"required,max=128"`
}

func (a *API) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.authSvc.Start(r.Context(), authuc.StartInput{DeviceID: req.DeviceID})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      result.Token,
		"session_id": result.Session.ID,
		"device_id":  result.Session.DeviceID,
		"expires_at": result.Session.ExpiresAt,
	})
}
