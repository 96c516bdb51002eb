package scheduler

import (
	"encoding/json"

	"property_service_backend/internal/notification"

	"github.com/hibiken/asynq"
)

const TaskStaffAlert = "notification.staff_alert"

type StaffAlertPayload struct {
	Job notification.Job `json:"job"`
}

func NewStaffAlertTask(payload StaffAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaffAlert, data), nil
}

func ParseStaffAlertPayload(task *asynq.Task) (StaffAlertPayload, error) {
	var payload StaffAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StaffAlertPayload{}, err
	}
	return payload, nil
}
