package email

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// StaffAlert is the content of a staff notification email.
type StaffAlert struct {
	Event        string
	Heading      string
	DisplayID    string
	Category     string
	Priority     string
	Description  string
	TenantName   string
	TenantPhone  string
	PropertyName string
	UnitNumber   string
	CreatedAt    string
}

func renderEmailTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func subjectFor(alert StaffAlert) string {
	switch alert.Event {
	case "maintenance_created":
		return fmt.Sprintf(subjectMaintenanceCreatedFmt, alert.DisplayID, alert.Priority)
	case "complaint_created":
		return fmt.Sprintf(subjectComplaintCreatedFmt, alert.DisplayID)
	case "renewal_requested":
		return fmt.Sprintf(subjectRenewalRequestedFmt, alert.DisplayID)
	default:
		return fmt.Sprintf(subjectStaffAlertFmt, alert.DisplayID)
	}
}
