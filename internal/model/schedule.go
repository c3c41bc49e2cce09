package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Defaults reported when no daily reminder has been saved.
const (
	DefaultReminderHour   = 22
	DefaultReminderMinute = 0
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// ScheduleConfig is the single persisted daily-reminder record.
//
// On disk it is a tagged variant: {"enabled":true,"hour":H,"minute":M} or
// {"enabled":false}. Hour and Minute of a disabled record carry the defaults.
type ScheduleConfig struct {
	Hour    int  `json:"hour"`
	Minute  int  `json:"minute"`
	Enabled bool `json:"enabled"`
}

// DisabledSchedule is returned when nothing (valid) is persisted.
func DisabledSchedule() ScheduleConfig {
	return ScheduleConfig{Hour: DefaultReminderHour, Minute: DefaultReminderMinute, Enabled: false}
}

// DailySchedule returns an enabled record for hour:minute.
func DailySchedule(hour, minute int) ScheduleConfig {
	return ScheduleConfig{Hour: hour, Minute: minute, Enabled: true}
}

// ValidateTime checks hour is 0-23 and minute is 0-59.
func ValidateTime(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidSchedule, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidSchedule, minute)
	}
	return nil
}

// Clock formats the reminder time as HH:MM.
func (c ScheduleConfig) Clock() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

type enabledRecord struct {
	Enabled bool `json:"enabled"`
	Hour    *int `json:"hour,omitempty"`
	Minute  *int `json:"minute,omitempty"`
}

// MarshalJSON writes the tagged form; a disabled record carries no time.
func (c ScheduleConfig) MarshalJSON() ([]byte, error) {
	if !c.Enabled {
		return json.Marshal(enabledRecord{Enabled: false})
	}
	h, m := c.Hour, c.Minute
	return json.Marshal(enabledRecord{Enabled: true, Hour: &h, Minute: &m})
}

// UnmarshalJSON accepts only well-formed variants. An enabled record must carry
// an in-range hour and minute.
func (c *ScheduleConfig) UnmarshalJSON(data []byte) error {
	var rec enabledRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if !rec.Enabled {
		*c = DisabledSchedule()
		return nil
	}
	if rec.Hour == nil || rec.Minute == nil {
		return fmt.Errorf("%w: enabled schedule without hour and minute", ErrInvalidSchedule)
	}
	if err := ValidateTime(*rec.Hour, *rec.Minute); err != nil {
		return err
	}
	*c = DailySchedule(*rec.Hour, *rec.Minute)
	return nil
}
