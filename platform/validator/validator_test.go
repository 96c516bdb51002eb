package validator

import "testing"

type contact struct {
	Phone string `validate:"required,phone_digits"`
}

func TestPhoneDigitsTag(t *testing.T) {
	v := New()

	if err := v.Struct(contact{Phone: "+966 50 123 4567"}); err != nil {
		t.Fatalf("expected formatted phone to validate, got %v", err)
	}
	if err := v.Struct(contact{Phone: "12-34"}); err == nil {
		t.Fatal("expected short phone to fail validation")
	}
	if err := v.Struct(contact{}); err == nil {
		t.Fatal("expected missing phone to fail validation")
	}
}
