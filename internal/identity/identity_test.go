package identity

import "testing"

func TestDeriveRole(t *testing.T) {
	tests := []struct {
		name     string
		campusID string
		want     string
		wantErr  bool
	}{
		{name: "Student", campusID: "S12345678", want: RoleStudent},
		{name: "Faculty", campusID: "F12345", want: RoleFaculty},
		{name: "Admin", campusID: "A1234", want: RoleAdmin},
		{name: "LowercasePrefix", campusID: "s12345678", want: RoleStudent},
		{name: "SurroundingSpace", campusID: "  F12345 ", want: RoleFaculty},
		{name: "StudentTooShort", campusID: "S1234567", wantErr: true},
		{name: "StudentTooLong", campusID: "S123456789", wantErr: true},
		{name: "AdminWrongDigits", campusID: "A12345", wantErr: true},
		{name: "UnknownPrefix", campusID: "X1234", wantErr: true},
		{name: "Empty", campusID: "", wantErr: true},
		{name: "LettersInDigits", campusID: "S1234567a", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveRole(tt.campusID)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DeriveRole(%q) = %q, want error", tt.campusID, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveRole(%q) error: %v", tt.campusID, err)
			}
			if got != tt.want {
				t.Errorf("DeriveRole(%q) = %q, want %q", tt.campusID, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" s12345678 "); got != "S12345678" {
		t.Errorf("Normalize = %q, want S12345678", got)
	}
}
