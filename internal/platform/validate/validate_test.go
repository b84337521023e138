package validate

import (
	"errors"
	"strings"
	"testing"
)

type trackRequest struct {
	TrackID   string `json:"track_id" validate:"required,max=5"`
	TrackName string `json:"track_name" validate:"required"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	if err := v.Struct(trackRequest{TrackID: "t1", TrackName: "Data"}); err != nil {
		t.Fatalf("Struct() error = %v, want nil", err)
	}
}

func TestStruct_UsesJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(trackRequest{TrackID: "toolong"})
	if err == nil {
		t.Fatal("Struct() should fail")
	}

	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("error type = %T, want Errors", err)
	}
	if len(errs) != 2 {
		t.Fatalf("len(errs) = %d, want 2: %v", len(errs), errs)
	}
	if errs[0].Field != "track_id" {
		t.Errorf("errs[0].Field = %q, want track_id", errs[0].Field)
	}
	if errs[1].Field != "track_name" {
		t.Errorf("errs[1].Field = %q, want track_name", errs[1].Field)
	}
	if errs[1].Message != "track_name is required" {
		t.Errorf("errs[1].Message = %q", errs[1].Message)
	}
}

func TestStruct_EmailMessage(t *testing.T) {
	v := New()
	err := v.Struct(trackRequest{TrackID: "t1", TrackName: "Data", Email: "nope"})
	if err == nil {
		t.Fatal("Struct() should fail for a bad email")
	}
	if !strings.Contains(err.Error(), "email") {
		t.Errorf("error = %q, want it to mention email", err.Error())
	}
}
