package presence

import (
	"testing"
	"time"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
		wantErr error
	}{
		{
			name:    "rfc3339 timestamp",
			payload: `{"deviceId":"gate-1","employeeUid":"BADGE42","timestamp":"2026-08-03T08:55:00Z","eventKind":"Scan"}`,
			want: Event{
				DeviceID:    "gate-1",
				EmployeeUID: "BADGE42",
				Timestamp:   time.Date(2026, 8, 3, 8, 55, 0, 0, time.UTC),
				Kind:        "scan",
			},
		},
		{
			name:    "unix seconds",
			payload: `{"employeeUid":"BADGE42","ts":1754211300}`,
			want: Event{
				EmployeeUID: "BADGE42",
				Timestamp:   time.Unix(1754211300, 0).UTC(),
			},
		},
		{
			name:    "rfc3339 wins over unix",
			payload: `{"employeeUid":"BADGE42","timestamp":"2026-08-03T08:55:00Z","ts":1}`,
			want: Event{
				EmployeeUID: "BADGE42",
				Timestamp:   time.Date(2026, 8, 3, 8, 55, 0, 0, time.UTC),
			},
		},
		{
			name:    "uid is trimmed",
			payload: `{"employeeUid":"  BADGE42  ","ts":1754211300}`,
			want: Event{
				EmployeeUID: "BADGE42",
				Timestamp:   time.Unix(1754211300, 0).UTC(),
			},
		},
		{
			name:    "malformed json",
			payload: `{"employeeUid":`,
			wantErr: ErrBadPayload,
		},
		{
			name:    "malformed timestamp",
			payload: `{"employeeUid":"BADGE42","timestamp":"yesterday"}`,
			wantErr: ErrBadPayload,
		},
		{
			name:    "missing uid",
			payload: `{"ts":1754211300}`,
			wantErr: ErrMissingEmployeeUID,
		},
		{
			name:    "blank uid",
			payload: `{"employeeUid":"   ","ts":1754211300}`,
			wantErr: ErrMissingEmployeeUID,
		},
		{
			name:    "missing timestamp",
			payload: `{"employeeUid":"BADGE42"}`,
			wantErr: ErrMissingTimestamp,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.payload))
			if err != tt.wantErr {
				t.Fatalf("DecodeEvent() error = %v; expected %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("DecodeEvent() = %+v; expected %+v", got, tt.want)
			}
		})
	}
}
