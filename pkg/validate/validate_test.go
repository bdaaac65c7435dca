package validate

import (
	"strings"
	"testing"
)

type sample struct {
	Name   string  `json:"name" validate:"required,min=1,max=5"`
	Status string  `json:"status" validate:"omitempty,oneof=public private"`
	IDs    []int64 `json:"ids" validate:"omitempty,dive,gt=0"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{name: "valid", in: sample{Name: "abc", Status: "public"}},
		{name: "missing name", in: sample{}, wantErr: "name is required"},
		{name: "too long", in: sample{Name: "abcdef"}, wantErr: "name must be at most 5"},
		{name: "bad status", in: sample{Name: "a", Status: "secret"}, wantErr: "status must be one of: public private"},
		{name: "bad id", in: sample{Name: "a", IDs: []int64{1, 0}}, wantErr: "must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Struct() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
