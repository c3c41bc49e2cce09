package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestScheduleMarshalTagged(t *testing.T) {
	data, err := json.Marshal(DailySchedule(7, 30))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"enabled":true,"hour":7,"minute":30}` {
		t.Errorf("enabled json = %s", data)
	}

	data, err = json.Marshal(DisabledSchedule())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"enabled":false}` {
		t.Errorf("disabled json = %s", data)
	}
}

func TestScheduleUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ScheduleConfig
		wantErr bool
	}{
		{name: "enabled", in: `{"enabled":true,"hour":22,"minute":5}`, want: DailySchedule(22, 5)},
		{name: "midnight", in: `{"enabled":true,"hour":0,"minute":0}`, want: DailySchedule(0, 0)},
		{name: "disabled", in: `{"enabled":false}`, want: DisabledSchedule()},
		{name: "disabled ignores time", in: `{"enabled":false,"hour":3,"minute":3}`, want: DisabledSchedule()},
		{name: "missing minute", in: `{"enabled":true,"hour":22}`, wantErr: true},
		{name: "hour out of range", in: `{"enabled":true,"hour":24,"minute":0}`, wantErr: true},
		{name: "minute out of range", in: `{"enabled":true,"hour":1,"minute":60}`, wantErr: true},
		{name: "garbage", in: `not json`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ScheduleConfig
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidateTime(t *testing.T) {
	if err := ValidateTime(23, 59); err != nil {
		t.Errorf("23:59 should be valid: %v", err)
	}
	if err := ValidateTime(-1, 0); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule, got %v", err)
	}
}

func TestScheduleClock(t *testing.T) {
	c := DailySchedule(9, 5)
	if c.Clock() != "09:05" {
		t.Errorf("clock = %q, want 09:05", c.Clock())
	}
}
