package ingest

import (
	"testing"

	"github.com/uttree-health/platform/pkg/common/models"
)

func validBatch() BatchRequest {
	return BatchRequest{
		Source:      "mimic",
		AdmissionID: 100,
		SubjectID:   7,
		Prescriptions: []models.PrescriptionRecord{
			{SubjectID: 7, AdmissionID: 100, StartDate: "2019-03-01", EndDate: "2019-03-03", DrugName: "Warfarin"},
		},
	}
}

func TestValidateAcceptsKnownSource(t *testing.T) {
	v := NewValidator([]string{"mimic", "ehr"})
	if err := v.Validate(validBatch()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownSource(t *testing.T) {
	v := NewValidator([]string{"mimic"})
	req := validBatch()
	req.Source = "spreadsheet"

	err := v.Validate(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected a ValidationError, got %T", err)
	}
}

func TestValidateRejectsEmptyBatch(t *testing.T) {
	v := NewValidator([]string{"mimic"})
	req := validBatch()
	req.Prescriptions = nil

	if err := v.Validate(req); err == nil {
		t.Fatal("expected validation error for empty batch")
	}
}

func TestValidateRejectsMismatchedAdmission(t *testing.T) {
	v := NewValidator([]string{"mimic"})
	req := validBatch()
	req.Labs = []models.LabRecord{{SubjectID: 7, AdmissionID: 999, ChartTime: "2019-03-02", ItemID: 50912}}

	if err := v.Validate(req); err == nil {
		t.Fatal("expected validation error for mismatched admission id")
	}
}

func TestValidateRequiresAdmissionID(t *testing.T) {
	v := NewValidator([]string{"mimic"})
	req := validBatch()
	req.AdmissionID = 0

	if err := v.Validate(req); err == nil {
		t.Fatal("expected validation error for missing admission id")
	}
}
