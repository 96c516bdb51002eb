package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"property_service_backend/internal/email"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/validator"

	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	at     []time.Time
	failTo map[string]bool
}

func (s *fakeSender) SendText(_ context.Context, to string, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	s.at = append(s.at, time.Now())
	if s.failTo[to] {
		return "", errors.New("gateway rejected")
	}
	return "wamid." + to, nil
}

type fakeMailer struct {
	to []string
}

func (m *fakeMailer) SendStaffAlert(_ context.Context, toEmail string, _ email.StaffAlert) error {
	m.to = append(m.to, toEmail)
	return nil
}

func testDirectory() Directory {
	return Directory{Staff: []StaffMember{
		{Role: "maintenance", Phone: "+966500000001", Email: "ops@example.com"},
		{Role: "manager", Phone: "+966500000002"},
		{Role: "leasing", Phone: "+966500000003", Events: []Event{EventRenewalRequested}},
	}}
}

func TestDeliverContinuesAfterFailure(t *testing.T) {
	sender := &fakeSender{failTo: map[string]bool{"+966500000001": true}}
	mailer := &fakeMailer{}
	fanout := NewFanout(testDirectory(), sender, mailer, 0, logger.Nop())

	report := fanout.NotifyMaintenanceCreated(context.Background(), Payload{DisplayID: "MR-000001", Category: "plumbing"})

	require.Equal(t, Report{Attempted: 2, Delivered: 1, Failed: 1}, report)
	require.Equal(t, []string{"+966500000001", "+966500000002"}, sender.sent)
	require.Equal(t, []string{"ops@example.com"}, mailer.to)
}

func TestDeliverHonoursEventFilter(t *testing.T) {
	sender := &fakeSender{}
	fanout := NewFanout(testDirectory(), sender, nil, 0, logger.Nop())

	report := fanout.NotifyRenewalRequested(context.Background(), Payload{DisplayID: "RN-000001"})
	require.Equal(t, 3, report.Delivered)

	sender.sent = nil
	report = fanout.NotifyComplaintCreated(context.Background(), Payload{DisplayID: "CP-000001"})
	require.Equal(t, 2, report.Delivered)
	require.NotContains(t, sender.sent, "+966500000003")
}

func TestDeliverSpacesSendsByDelay(t *testing.T) {
	sender := &fakeSender{}
	fanout := NewFanout(testDirectory(), sender, nil, 50*time.Millisecond, logger.Nop())

	start := time.Now()
	report := fanout.NotifyRenewalRequested(context.Background(), Payload{DisplayID: "RN-000002"})
	elapsed := time.Since(start)

	require.Equal(t, Report{Attempted: 3, Delivered: 3}, report)
	require.Equal(t, []string{"+966500000001", "+966500000002", "+966500000003"}, sender.sent)
	require.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	for i := 1; i < len(sender.at); i++ {
		require.GreaterOrEqual(t, sender.at[i].Sub(sender.at[i-1]), 40*time.Millisecond)
	}
}

func TestDeliverStopsWhenContextCancelled(t *testing.T) {
	sender := &fakeSender{}
	fanout := NewFanout(testDirectory(), sender, nil, time.Hour, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := fanout.Deliver(ctx, Job{Event: EventMaintenanceCreated})
	require.Equal(t, 0, report.Attempted)
}

func TestStaffMessage(t *testing.T) {
	msg := StaffMessage(Job{Event: EventMaintenanceCreated, Payload: Payload{
		DisplayID:    "MR-000123",
		Category:     "plumbing",
		Priority:     "high",
		TenantName:   "Sara",
		TenantPhone:  "+966501234567",
		PropertyName: "Palm Towers",
		UnitNumber:   "12B",
		Description:  "tap is leaking",
	}})
	require.Equal(t, "New maintenance request: MR-000123\nCategory: plumbing\nPriority: high\nTenant: Sara (+966501234567)\nProperty: Palm Towers, unit 12B\n\ntap is leaking", msg)
}

func TestParseDirectoryYAML(t *testing.T) {
	data := []byte(`
staff:
  - role: maintenance
    name: Khalid
    phone: "+966 50 000 0001"
    email: khalid@example.com
    events: [maintenance_created]
  - role: manager
    phone: "0500000002"
`)
	dir, err := ParseDirectoryYAML(data, validator.New())
	require.NoError(t, err)
	require.Len(t, dir.Staff, 2)
	require.Len(t, dir.Recipients(EventMaintenanceCreated), 2)
	require.Len(t, dir.Recipients(EventComplaintCreated), 1)
}

func TestParseDirectoryYAMLRejectsInvalidEntries(t *testing.T) {
	_, err := ParseDirectoryYAML([]byte("staff:\n  - role: manager\n    phone: \"12\"\n"), validator.New())
	require.Error(t, err)
}

func TestParseDirectoryList(t *testing.T) {
	dir, err := ParseDirectoryList("maintenance:+966500000001, manager:0500000002", validator.New())
	require.NoError(t, err)
	require.Equal(t, "manager", dir.Staff[1].Role)
	require.Equal(t, "0500000002", dir.Staff[1].Phone)

	_, err = ParseDirectoryList("nobody", validator.New())
	require.Error(t, err)
}

type recordingDeliverer struct {
	mu   sync.Mutex
	jobs []Job
}

func (d *recordingDeliverer) Deliver(_ context.Context, job Job) Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return Report{Attempted: 1, Delivered: 1}
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

func TestMemoryOutboxDropsWhenFull(t *testing.T) {
	outbox := NewMemoryOutbox(&recordingDeliverer{}, 1, logger.Nop())

	err := outbox.Enqueue(context.Background(), Job{Event: EventComplaintCreated}, Job{Event: EventMaintenanceCreated})
	require.ErrorIs(t, err, ErrOutboxFull)
	require.Equal(t, 1, outbox.Pending())
}

func TestMemoryOutboxRunDelivers(t *testing.T) {
	deliverer := &recordingDeliverer{}
	outbox := NewMemoryOutbox(deliverer, 4, logger.Nop())
	require.NoError(t, outbox.Enqueue(context.Background(), Job{Event: EventComplaintCreated}, Job{Event: EventMaintenanceCreated}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		outbox.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return deliverer.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
