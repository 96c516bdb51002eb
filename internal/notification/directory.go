package notification

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"property_service_backend/platform/config"
	"property_service_backend/platform/validator"

	"gopkg.in/yaml.v3"
)

// StaffMember is one entry of the staff directory. An empty Events list
// subscribes the member to every event.
type StaffMember struct {
	Role   string  `yaml:"role" validate:"required"`
	Name   string  `yaml:"name"`
	Phone  string  `yaml:"phone" validate:"required,phone_digits"`
	Email  string  `yaml:"email" validate:"omitempty,email"`
	Events []Event `yaml:"events"`
}

// Directory is the fixed set of staff who receive alerts.
type Directory struct {
	Staff []StaffMember `yaml:"staff" validate:"dive"`
}

// LoadDirectory reads the directory from the configured YAML file, or from
// the inline "role:phone,role:phone" list when no file is set.
func LoadDirectory(cfg config.NotificationConfig, v *validator.Validator) (Directory, error) {
	if path := cfg.GetStaffDirectoryFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Directory{}, fmt.Errorf("read staff directory: %w", err)
		}
		return ParseDirectoryYAML(data, v)
	}
	return ParseDirectoryList(cfg.GetStaffDirectory(), v)
}

// ParseDirectoryYAML parses and validates a YAML staff directory.
func ParseDirectoryYAML(data []byte, v *validator.Validator) (Directory, error) {
	var dir Directory
	if err := yaml.Unmarshal(data, &dir); err != nil {
		return Directory{}, fmt.Errorf("parse staff directory: %w", err)
	}
	return dir, dir.validate(v)
}

// ParseDirectoryList parses "role:phone" pairs separated by commas.
func ParseDirectoryList(list string, v *validator.Validator) (Directory, error) {
	var dir Directory
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		role, number, ok := strings.Cut(item, ":")
		if !ok {
			return Directory{}, fmt.Errorf("staff directory entry %q: expected role:phone", item)
		}
		dir.Staff = append(dir.Staff, StaffMember{
			Role:  strings.TrimSpace(role),
			Phone: strings.TrimSpace(number),
		})
	}
	return dir, dir.validate(v)
}

func (d Directory) validate(v *validator.Validator) error {
	if v == nil {
		return nil
	}
	if err := v.Struct(d); err != nil {
		return fmt.Errorf("invalid staff directory: %w", err)
	}
	return nil
}

// Recipients returns the members subscribed to event.
func (d Directory) Recipients(event Event) []StaffMember {
	out := make([]StaffMember, 0, len(d.Staff))
	for _, m := range d.Staff {
		if len(m.Events) == 0 || slices.Contains(m.Events, event) {
			out = append(out, m)
		}
	}
	return out
}
