package health

import "context"

// IndexPinger checks the vector index backend.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// RecordPinger checks the record/history database.
type RecordPinger interface {
	PingContext(ctx context.Context) error
}

// ProviderChecker checks embedding provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
