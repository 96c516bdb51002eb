package email

const (
	subjectMaintenanceCreatedFmt = "New maintenance request %s (%s)"
	subjectComplaintCreatedFmt   = "New complaint %s"
	subjectRenewalRequestedFmt   = "Contract renewal requested %s"
	subjectStaffAlertFmt         = "Staff alert %s"
)
