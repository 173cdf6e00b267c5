package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports whether the local database answers reads",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status  string `json:"status" doc:"healthy or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Time taken by the database probe"`
	Message string `json:"message,omitempty" doc:"Failure detail when unhealthy"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	start := time.Now()
	_, err := s.photos.Tags(ctx)
	latency := time.Since(start).String()

	if err != nil {
		return &HealthOutput{Body: HealthResponse{
			Status:  "unhealthy",
			Latency: latency,
			Message: err.Error(),
		}}, nil
	}
	return &HealthOutput{Body: HealthResponse{Status: "healthy", Latency: latency}}, nil
}
