package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceDigits(t *testing.T) {
	tests := []struct {
		in                   string
		total, whole, places int
	}{
		{"8.55", 3, 1, 2},
		{"8.50", 3, 1, 2},
		{"12.2", 3, 2, 1},
		{"0", 1, 1, 0},
		{"0.01", 2, 0, 2},
		{"999.99", 5, 3, 2},
		{"100", 3, 3, 0},
		{"1e2", 3, 3, 0},
		{"0.001", 3, 0, 3},
		{"-4.55", 3, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			total, whole, places := priceDigits(decimal.RequireFromString(tt.in))
			if total != tt.total || whole != tt.whole || places != tt.places {
				t.Errorf("priceDigits(%s) = (%d, %d, %d), want (%d, %d, %d)",
					tt.in, total, whole, places, tt.total, tt.whole, tt.places)
			}
		})
	}
}

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		in       string
		wantMsgs int
	}{
		{"8.55", 0},
		{"0", 0},
		{"999.99", 0},
		{"-1", 1},
		{"1.555", 1},
		{"1000", 1},
		{"1000.555", 3}, // digits in total, decimal places, whole digits
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			msgs := validatePrice(decimal.RequireFromString(tt.in))
			if len(msgs) != tt.wantMsgs {
				t.Errorf("validatePrice(%s) = %v, want %d messages", tt.in, msgs, tt.wantMsgs)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Test@EXAMPLE.com", "Test@example.com"},
		{"  user@Example.ORG ", "user@example.org"},
		{"no-at-sign", "no-at-sign"},
		{"a@b@Example.com", "a@b@example.com"},
	}

	for _, tt := range tests {
		if got := normalizeEmail(tt.in); got != tt.want {
			t.Errorf("normalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidationError(t *testing.T) {
	ve := NewValidationError()
	if ve.OrNil() != nil {
		t.Fatal("empty ValidationError should convert to nil")
	}

	ve.Add("title", MsgBlank)
	ve.Add("price", MsgRequired)
	ve.Merge(fieldError("title", "second"))

	if got := len(ve.Fields["title"]); got != 2 {
		t.Errorf("title messages = %d, want 2", got)
	}

	want := "validation: price: This field is required.; title: This field may not be blank. second"
	if ve.Error() != want {
		t.Errorf("Error() = %q, want %q", ve.Error(), want)
	}

	cred := credentialsError()
	if cred.HasErrors() {
		t.Error("credential error must not carry field errors")
	}
	if cred.Message != MsgInvalidCredentials {
		t.Errorf("Message = %q, want %q", cred.Message, MsgInvalidCredentials)
	}
}

func TestValidateStruct_FieldNamesAndMessages(t *testing.T) {
	ve := validateStruct(RegisterInput{
		Email:    strPtr("not-an-email"),
		Password: strPtr("abc"),
	})
	if ve == nil {
		t.Fatal("expected validation errors")
	}

	checks := map[string]string{
		"email":    MsgInvalidEmail,
		"password": "Ensure this field has at least 5 characters.",
		"name":     MsgRequired,
	}
	for field, msg := range checks {
		got := ve.Fields[field]
		if len(got) != 1 || got[0] != msg {
			t.Errorf("Fields[%q] = %v, want [%q]", field, got, msg)
		}
	}
}
