package quadruple

import (
	"testing"

	"github.com/uttree-health/platform/pkg/common/models"
	"github.com/uttree-health/platform/pkg/terminology"
)

func TestBuildExpandsPrescriptionPerDay(t *testing.T) {
	b := NewBuilder(terminology.DefaultCatalog())

	quads, stats := b.Build([]models.PrescriptionRecord{
		{SubjectID: 7, AdmissionID: 100, StartDate: "2019-03-01", EndDate: "2019-03-03", DrugName: "Warfarin"},
	}, nil, nil)

	if stats.InputErrors != 0 {
		t.Fatalf("expected no input errors, got %d", stats.InputErrors)
	}
	if len(quads) != 3 {
		t.Fatalf("expected one quadruple per active day, got %d", len(quads))
	}
	for i, q := range quads {
		if q.Type != models.RealTime {
			t.Fatalf("quadruple %d: expected RealTime, got %s", i, q.Type)
		}
		if q.Event != EventMainDrug || q.Value != "Warfarin" {
			t.Fatalf("quadruple %d: unexpected event/value %s/%s", i, q.Event, q.Value)
		}
	}
	if !quads[0].Timestamp.Before(quads[1].Timestamp) || !quads[1].Timestamp.Before(quads[2].Timestamp) {
		t.Fatal("expected expanded days in ascending order")
	}
}

func TestBuildSkipsMalformedPrescriptions(t *testing.T) {
	b := NewBuilder(terminology.DefaultCatalog())

	quads, stats := b.Build([]models.PrescriptionRecord{
		{AdmissionID: 100, StartDate: "not-a-date", EndDate: "2019-03-03", DrugName: "Warfarin"},
		{AdmissionID: 100, StartDate: "2019-03-01", EndDate: "2019-03-03", DrugName: "  "},
		{AdmissionID: 100, StartDate: "2019-03-05", EndDate: "2019-03-01", DrugName: "Heparin"},
	}, nil, nil)

	if len(quads) != 0 {
		t.Fatalf("expected all rows dropped, got %d quadruples", len(quads))
	}
	if stats.InputErrors != 3 {
		t.Fatalf("expected 3 input errors, got %d", stats.InputErrors)
	}
}

func TestBuildResolvesLabItems(t *testing.T) {
	b := NewBuilder(terminology.DefaultCatalog())

	quads, stats := b.Build(nil, []models.LabRecord{
		{AdmissionID: 100, ChartTime: "2019-03-02 08:15:00", ItemID: 50912, Flag: "abnormal"},
		{AdmissionID: 100, ChartTime: "2019-03-02", ItemID: 50931, Flag: ""},
		{AdmissionID: 100, ChartTime: "2019-03-02", ItemID: 99999, Flag: "abnormal"},
	}, nil)

	if stats.InputErrors != 1 {
		t.Fatalf("expected 1 input error for unknown item, got %d", stats.InputErrors)
	}
	if len(quads) != 2 {
		t.Fatalf("expected 2 quadruples, got %d", len(quads))
	}
	if quads[0].Event != "Creatinine" || quads[0].Value != "abnormal" {
		t.Fatalf("unexpected first lab quadruple: %s/%s", quads[0].Event, quads[0].Value)
	}
	if quads[1].Event != "Glucose" || quads[1].Value != "normal" {
		t.Fatalf("expected empty flag to normalize to 'normal', got %s/%s", quads[1].Event, quads[1].Value)
	}
}

func TestBuildClassifiesConcepts(t *testing.T) {
	b := NewBuilder(terminology.DefaultCatalog())

	quads, stats := b.Build(nil, nil, []models.ConceptRecord{
		{AdmissionID: 100, ChartDate: "2019-03-02", SectionCategory: "past_medical_history", Label: "DISEASE", CanonicalName: "Diabetes Mellitus"},
		{AdmissionID: 100, ChartDate: "2019-03-02", SectionCategory: "assessment", Label: "DISEASE", CanonicalName: "Atrial Fibrillation"},
		{AdmissionID: 100, ChartDate: "2019-03-02", SectionCategory: "assessment", Label: "DISEASE", CanonicalName: "Pneumonia", Negated: true},
		{AdmissionID: 100, ChartDate: "2019-03-02", SectionCategory: "assessment", Label: "MEDICATION", CanonicalName: "Aspirin"},
	})

	if stats.InputErrors != 0 {
		t.Fatalf("negated and non-disease mentions are filtered, not errors; got %d", stats.InputErrors)
	}
	if len(quads) != 2 {
		t.Fatalf("expected 2 quadruples, got %d", len(quads))
	}
	if quads[0].Type != models.Retro {
		t.Fatalf("history section mention should be Retro, got %s", quads[0].Type)
	}
	if quads[1].Type != models.NewFinding {
		t.Fatalf("non-history mention should be NewFinding, got %s", quads[1].Type)
	}
	if quads[0].Event != EventDiseaseMention {
		t.Fatalf("unexpected concept event %s", quads[0].Event)
	}
}

func TestParseDateTruncatesToDay(t *testing.T) {
	day, err := parseDate("2019-03-02 23:59:59")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 {
		t.Fatalf("expected day precision, got %v", day)
	}

	other, err := parseDate("2019-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !day.Equal(other) {
		t.Fatal("timestamps on the same calendar day must land in the same window")
	}
}
