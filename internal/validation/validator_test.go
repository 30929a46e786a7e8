// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=8,printascii"`
	Mode   string `json:"mode" validate:"required,oneof=sync async"`
	Count  int    `json:"count,omitempty" validate:"min=0,max=5"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     sampleRequest
		wantMsg []string
	}{
		{"valid", sampleRequest{Reason: "manual", Mode: "async"}, nil},
		{"empty reason allowed", sampleRequest{Mode: "sync"}, nil},
		{"missing mode", sampleRequest{}, []string{"mode is required"}},
		{"long reason", sampleRequest{Reason: "far too long", Mode: "sync"}, []string{"reason must be at most 8 characters"}},
		{"control characters", sampleRequest{Reason: "a\nb", Mode: "sync"}, []string{"reason must contain printable ASCII"}},
		{"bad mode", sampleRequest{Mode: "later"}, []string{"mode must be one of: sync async"}},
		{"several", sampleRequest{Mode: "x", Count: 9}, []string{"mode must be one of", "count must be at most 5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.req)
			if len(tt.wantMsg) == 0 {
				if verr != nil {
					t.Fatalf("ValidateStruct = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation errors")
			}
			if len(verr.Fields) != len(tt.wantMsg) {
				t.Errorf("got %d field errors, want %d: %v", len(verr.Fields), len(tt.wantMsg), verr)
			}
			for _, want := range tt.wantMsg {
				if !strings.Contains(verr.Error(), want) {
					t.Errorf("error %q does not contain %q", verr.Error(), want)
				}
			}

			apiErr := verr.ToAPIError()
			if apiErr.Code != CodeValidation || apiErr.Message != verr.Error() {
				t.Errorf("ToAPIError = %+v", apiErr)
			}
			if fields, ok := apiErr.Details["fields"].([]FieldError); !ok || len(fields) != len(verr.Fields) {
				t.Errorf("details = %#v", apiErr.Details)
			}
		})
	}
}

func TestValidatorIsShared(t *testing.T) {
	t.Parallel()
	if Validator() != Validator() {
		t.Error("Validator should return a single instance")
	}
}
