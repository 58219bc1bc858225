package observability

import "net/http"

// HealthStatus is the health of a node, a component or a whole program.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusUp:
		return 0
	case HealthStatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worst returns the least healthy status; up for none. Unknown statuses
// count as down.
func Worst(statuses ...HealthStatus) HealthStatus {
	worst := HealthStatusUp
	for _, s := range statuses {
		if s.rank() > worst.rank() {
			worst = s
		}
	}
	if worst.rank() == 2 {
		return HealthStatusDown
	}
	return worst
}

// Health is one entry of a health report: a node thread or an
// infrastructure component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth aggregates the entries of a program.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth starts an empty report, which is up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent appends an entry; the overall status is the worst seen.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)
	sh.Status = Worst(sh.Status, ch.Status)
}

// HTTPStatus maps the overall status for health checks: degraded still serves.
func (sh *ServiceHealth) HTTPStatus() int {
	if sh.Status == HealthStatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
