package handler

import "net/http"

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleRoot is the deployment health check.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "Backend is running",
	})
}

// HandleStatus reports API liveness.
//
// HTTP: GET /api/status
func HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "API is operational",
	})
}
