package handlers

import (
	"net/http"
	"time"
)

// Version is overridden at build time with -ldflags.
var Version = "1.0.0"

// CRMChecker reports whether CRM credentials are present.
type CRMChecker interface {
	Configured() bool
}

// ConnChecker reports whether a broker connection is closed.
type ConnChecker interface {
	IsClosed() bool
}

type HealthHandler struct {
	CRM       CRMChecker
	RabbitMQ  ConnChecker
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(crm CRMChecker, rabbitMQ ConnChecker) *HealthHandler {
	return &HealthHandler{
		CRM:       crm,
		RabbitMQ:  rabbitMQ,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	if h.CRM != nil && h.CRM.Configured() {
		deps["crm"] = "configured"
	} else {
		deps["crm"] = "not configured"
	}

	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = "healthy"
		}
	} else {
		deps["rabbitmq"] = "not configured"
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "configured" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:       status,
		Version:      Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}
