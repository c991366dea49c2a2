package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Horizon  int    `json:"horizon"`
	RunStore bool   `json:"run_store"`
}

// Health reports liveness and the model the analyzer is configured with.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	opts := a.Analyzer.Options()
	a.json(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Model:    "ARIMA" + opts.Order.String(),
		Horizon:  opts.Horizon,
		RunStore: a.Runs != nil,
	})
}
