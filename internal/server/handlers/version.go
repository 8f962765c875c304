package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/information-sharing-networks/dcs-checker/internal/version"
)

// HandleVersion returns the version and build information for the service
func HandleVersion(info version.Info) http.HandlerFunc {
	// the response never changes, so it is built once
	response := VersionResponse{
		Version:   info.Version,
		BuildTime: info.BuildDate,
		GitCommit: info.GitCommit,
		Service:   "dcs-check",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode version", http.StatusInternalServerError)
			return
		}
	}
}

type VersionResponse struct {
	Version   string `json:"version" example:"1.0.0"`
	BuildTime string `json:"build_time" example:"2024-01-28T10:00:00Z"`
	GitCommit string `json:"git_commit" example:"4f2c1e9"`
	Service   string `json:"service" example:"dcs-check"`
}
