package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"example.com/framed-prints/internal/domain/pricing"
)

var errInvalidPhotoID = errors.New("invalid photo id")

func (a *API) handlePricingOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapOptions(pricing.ListOptions()))
}

func (a *API) handleCatalogStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": a.catalogSvc.Status()}
	if err := a.catalogSvc.Err(); err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if err := a.catalogSvc.Reload(r.Context()); err != nil {
		a.log.Warn("catalog reload failed", zap.Error(err))
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": a.catalogSvc.Status()})
}

func (a *API) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := a.catalogSvc.Photos()
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := make([]map[string]any, 0, len(photos))
	for _, p := range photos {
		resp = append(resp, mapPhoto(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, errInvalidPhotoID)
		return
	}

	photo, err := a.catalogSvc.Photo(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPhoto(photo))
}

func (a *API) handleGetPhotoArtist(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, errInvalidPhotoID)
		return
	}

	photo, err := a.catalogSvc.Photo(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	artist, err := a.catalogSvc.ResolveArtistForPhoto(photo)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"photo_id": photo.ID,
		"name":     artist.Name,
		"email":    artist.Email,
	})
}
