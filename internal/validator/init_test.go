package validator

import (
	"errors"
	"testing"
)

type sample struct {
	Kind string `validate:"required,oneof=a b"`
}

func TestDescribe(t *testing.T) {
	err := GetValidator().Struct(sample{Kind: "c"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got, want := Describe(err), "kind failed oneof=a b"; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}

	err = GetValidator().Struct(sample{})
	if got, want := Describe(err), "kind failed required"; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}

	if got := Describe(errors.New("plain")); got != "plain" {
		t.Errorf("Describe() = %q, want plain", got)
	}
}
