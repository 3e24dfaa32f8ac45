package database

import (
	"context"
	"database/sql"
	"time"
)

// HealthStatus summarizes the store's reachability for the /health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health pings db with the given context's deadline and reports the result.
func Health(ctx context.Context, db *sql.DB) (HealthStatus, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return HealthStatus{Status: "unhealthy", Message: err.Error()}, err
	}
	return HealthStatus{Status: "healthy"}, nil
}
