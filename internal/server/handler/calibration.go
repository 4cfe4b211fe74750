package handler

import (
	"net/http"

	"github.com/alejandrodnm/edgebot/internal/application/calibrate"
)

// CalibrationHandler serves calibration reports.
type CalibrationHandler struct {
	cal *calibrate.Engine
}

func NewCalibrationHandler(cal *calibrate.Engine) *CalibrationHandler {
	return &CalibrationHandler{cal: cal}
}

// GetCalibration returns the latest report, running a pass on demand when
// none has completed yet.
// GET /api/calibration
func (h *CalibrationHandler) GetCalibration(w http.ResponseWriter, r *http.Request) {
	if report := h.cal.Last(); report != nil {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := h.cal.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "calibration failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
