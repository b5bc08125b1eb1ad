package utils

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "RFC3339", in: "2025-03-01T10:00:00Z", want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "SqliteCurrentTimestamp", in: "2025-03-01 10:00:05", want: time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC)},
		{name: "Garbage", in: "yesterday", wantErr: true},
		{name: "Empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTime(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTime(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
