package domain

import "time"

// SettingEmailsEnabled is the key of the global email kill switch.
// An absent row means email is enabled.
const SettingEmailsEnabled = "emails_enabled"

// AppSetting is a process-wide flag owned by the admin surface. This
// subsystem only ever reads it.
type AppSetting struct {
	Key       string
	BoolValue bool
	UpdatedAt time.Time
}
