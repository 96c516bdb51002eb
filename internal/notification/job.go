// Package notification delivers best-effort staff alerts for requests
// created by tenants. Jobs are produced by the intake service, queued on an
// outbox and delivered by the fanout, never on the tenant's reply path.
package notification

import "time"

// Event identifies what a job notifies about.
type Event string

const (
	EventMaintenanceCreated Event = "maintenance_created"
	EventComplaintCreated   Event = "complaint_created"
	EventRenewalRequested   Event = "renewal_requested"
)

// Payload describes the request a staff alert is about.
type Payload struct {
	DisplayID    string    `json:"displayId"`
	Category     string    `json:"category,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	Description  string    `json:"description,omitempty"`
	TenantName   string    `json:"tenantName,omitempty"`
	TenantPhone  string    `json:"tenantPhone"`
	PropertyName string    `json:"propertyName,omitempty"`
	UnitNumber   string    `json:"unitNumber,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Job is one pending notification.
type Job struct {
	Event   Event   `json:"event"`
	Payload Payload `json:"payload"`
}

// Report summarizes one delivery.
type Report struct {
	Attempted int
	Delivered int
	Failed    int
}
