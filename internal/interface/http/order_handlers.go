package http

import (
	"net/http"

	"go.uber.org/zap"
)

func (a *API) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	summary, err := a.orderSvc.Submit(r.Context())
	if err != nil {
		a.log.Warn("order submission failed", zap.Error(err))
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSummary(summary))
}
