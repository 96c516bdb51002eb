package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"property_service_backend/internal/email"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/metrics"

	"golang.org/x/time/rate"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	SendText(ctx context.Context, to string, body string) (string, error)
}

// Mailer delivers an email copy of an alert.
type Mailer interface {
	SendStaffAlert(ctx context.Context, toEmail string, alert email.StaffAlert) error
}

// Fanout sends each job to every subscribed staff member, one send after the
// other, paced to respect the gateway's rate limits. A failed send is logged
// and never stops the remaining ones.
type Fanout struct {
	dir     Directory
	sender  Sender
	mailer  Mailer
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewFanout creates a fanout. mailer may be nil; delay <= 0 disables pacing.
func NewFanout(dir Directory, sender Sender, mailer Mailer, delay time.Duration, log *logger.Logger) *Fanout {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Fanout{
		dir:     dir,
		sender:  sender,
		mailer:  mailer,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

func (f *Fanout) NotifyMaintenanceCreated(ctx context.Context, payload Payload) Report {
	return f.Deliver(ctx, Job{Event: EventMaintenanceCreated, Payload: payload})
}

func (f *Fanout) NotifyComplaintCreated(ctx context.Context, payload Payload) Report {
	return f.Deliver(ctx, Job{Event: EventComplaintCreated, Payload: payload})
}

func (f *Fanout) NotifyRenewalRequested(ctx context.Context, payload Payload) Report {
	return f.Deliver(ctx, Job{Event: EventRenewalRequested, Payload: payload})
}

// Deliver sends job to its recipients and reports the outcome.
func (f *Fanout) Deliver(ctx context.Context, job Job) Report {
	var report Report
	log := f.log.WithContext(ctx).With("event", string(job.Event), "displayId", job.Payload.DisplayID)

	recipients := f.dir.Recipients(job.Event)
	if len(recipients) == 0 {
		log.Warn("no staff subscribed to event")
		return report
	}

	text := StaffMessage(job)
	alert := staffAlert(job)

	for _, member := range recipients {
		if err := f.limiter.Wait(ctx); err != nil {
			log.Warn("staff notification interrupted", "remaining", len(recipients)-report.Attempted, "error", err)
			break
		}

		report.Attempted++
		if _, err := f.sender.SendText(ctx, member.Phone, text); err != nil {
			report.Failed++
			f.observe(job.Event, "failed")
			log.Error("staff notification failed", "role", member.Role, "error", err)
		} else {
			report.Delivered++
			f.observe(job.Event, "delivered")
		}

		if f.mailer != nil && member.Email != "" {
			if err := f.mailer.SendStaffAlert(ctx, member.Email, alert); err != nil {
				f.observe(job.Event, "email_failed")
				log.Warn("staff email copy failed", "role", member.Role, "error", err)
			} else {
				f.observe(job.Event, "email_delivered")
			}
		}
	}

	log.Info("staff notified", "attempted", report.Attempted, "delivered", report.Delivered, "failed", report.Failed)
	return report
}

func (f *Fanout) observe(event Event, outcome string) {
	metrics.Get().StaffAlertsTotal.WithLabelValues(string(event), outcome).Inc()
}

func heading(event Event) string {
	switch event {
	case EventMaintenanceCreated:
		return "New maintenance request"
	case EventComplaintCreated:
		return "New complaint"
	case EventRenewalRequested:
		return "Contract renewal requested"
	default:
		return "Staff alert"
	}
}

// StaffMessage renders the WhatsApp text sent to staff for job.
func StaffMessage(job Job) string {
	p := job.Payload
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", heading(job.Event), p.DisplayID)
	if p.Category != "" {
		fmt.Fprintf(&b, "\nCategory: %s", p.Category)
	}
	if p.Priority != "" {
		fmt.Fprintf(&b, "\nPriority: %s", p.Priority)
	}
	tenant := p.TenantPhone
	if p.TenantName != "" {
		tenant = fmt.Sprintf("%s (%s)", p.TenantName, p.TenantPhone)
	}
	fmt.Fprintf(&b, "\nTenant: %s", tenant)
	if p.PropertyName != "" {
		fmt.Fprintf(&b, "\nProperty: %s", p.PropertyName)
		if p.UnitNumber != "" {
			fmt.Fprintf(&b, ", unit %s", p.UnitNumber)
		}
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", p.Description)
	}
	return b.String()
}

func staffAlert(job Job) email.StaffAlert {
	p := job.Payload
	return email.StaffAlert{
		Event:        string(job.Event),
		Heading:      heading(job.Event),
		DisplayID:    p.DisplayID,
		Category:     p.Category,
		Priority:     p.Priority,
		Description:  p.Description,
		TenantName:   p.TenantName,
		TenantPhone:  p.TenantPhone,
		PropertyName: p.PropertyName,
		UnitNumber:   p.UnitNumber,
		CreatedAt:    p.CreatedAt.Format("2006-01-02 15:04"),
	}
}
