package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"roadsafetyestimator/services"
)

type locationsResponse struct {
	Default string            `json:"default"`
	Regions []services.Region `json:"regions"`
}

// HandleLocations lists the known regions and their cost multipliers.
func HandleLocations() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, locationsResponse{
			Default: services.DefaultRegion,
			Regions: services.Regions(),
		})
	}
}
