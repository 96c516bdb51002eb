package email

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderStaffAlert(t *testing.T) {
	body, err := renderEmailTemplate("staff_alert.txt", StaffAlert{
		Event:        "maintenance_created",
		Heading:      "New maintenance request",
		DisplayID:    "MR-000123",
		Category:     "plumbing",
		Priority:     "high",
		Description:  "tap is leaking",
		TenantName:   "Sara",
		TenantPhone:  "+966501234567",
		PropertyName: "Palm Towers",
		UnitNumber:   "12B",
		CreatedAt:    "2026-01-01 10:00",
	})
	require.NoError(t, err)
	require.Contains(t, body, "MR-000123")
	require.Contains(t, body, "Palm Towers, unit 12B")
	require.Contains(t, body, "tap is leaking")
}

func TestSubjectFor(t *testing.T) {
	require.Equal(t, "New maintenance request MR-000001 (urgent)", subjectFor(StaffAlert{Event: "maintenance_created", DisplayID: "MR-000001", Priority: "urgent"}))
	require.Equal(t, "New complaint CP-000002", subjectFor(StaffAlert{Event: "complaint_created", DisplayID: "CP-000002"}))
	require.Equal(t, "Staff alert X", subjectFor(StaffAlert{Event: "unknown", DisplayID: "X"}))
}

func TestNewSMTPSenderDisabled(t *testing.T) {
	require.Nil(t, NewSMTPSender(nil))
}
