package temporaltree

import (
	"testing"
	"time"

	"github.com/uttree-health/platform/pkg/common/models"
)

func day(d int) time.Time {
	return time.Date(2019, 3, d, 0, 0, 0, 0, time.UTC)
}

func scenarioQuads() []models.Quadruple {
	return []models.Quadruple{
		{AdmissionID: 100, Timestamp: day(1), Type: models.RealTime, Event: "MainDrug", Value: "Warfarin"},
		{AdmissionID: 100, Timestamp: day(2), Type: models.RealTime, Event: "Creatinine", Value: "abnormal"},
		{AdmissionID: 100, Timestamp: day(2), Type: models.Retro, Event: "DiseaseDisorderMention", Value: "Diabetes Mellitus"},
	}
}

func TestBuildAssignsAscendingWindows(t *testing.T) {
	tree := Build(100, scenarioQuads())

	if tree.WindowCount() != 2 {
		t.Fatalf("expected 2 windows, got %d", tree.WindowCount())
	}

	w1 := tree.BucketTypes(1)
	if len(w1) != 1 || w1[0] != models.RealTime {
		t.Fatalf("window 1: expected single RealTime bucket, got %v", w1)
	}

	w2 := tree.BucketTypes(2)
	if len(w2) != 2 || w2[0] != models.RealTime || w2[1] != models.Retro {
		t.Fatalf("window 2: expected RealTime then Retro, got %v", w2)
	}
}

func TestBuildPrunesEmptyBuckets(t *testing.T) {
	tree := Build(100, []models.Quadruple{
		{AdmissionID: 100, Timestamp: day(1), Type: models.NewFinding, Event: "DiseaseDisorderMention", Value: "Sepsis"},
	})

	types := tree.BucketTypes(1)
	if len(types) != 1 || types[0] != models.NewFinding {
		t.Fatalf("expected only the populated bucket, got %v", types)
	}
}

func TestBuildOrdersLeavesByEventThenValue(t *testing.T) {
	tree := Build(100, []models.Quadruple{
		{AdmissionID: 100, Timestamp: day(1), Type: models.RealTime, Event: "MainDrug", Value: "Warfarin"},
		{AdmissionID: 100, Timestamp: day(1), Type: models.RealTime, Event: "Creatinine", Value: "abnormal"},
		{AdmissionID: 100, Timestamp: day(1), Type: models.RealTime, Event: "MainDrug", Value: "Heparin"},
	})

	labels := tree.LeafLabels(1, models.RealTime)
	want := []string{"Creatinine_abnormal", "MainDrug_Heparin", "MainDrug_Warfarin"}
	if len(labels) != len(want) {
		t.Fatalf("expected %d leaves, got %d", len(want), len(labels))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("leaf %d: expected %q, got %q", i, want[i], labels[i])
		}
	}
}

func TestCanonicalStringConcreteScenario(t *testing.T) {
	got := CanonicalString(100, scenarioQuads())
	want := "MainDrug_Warfarin_Creatinine_abnormal_DiseaseDisorderMention_Diabetes Mellitus"
	if got != want {
		t.Fatalf("canonical string mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestCanonicalStringIsOrderInsensitive(t *testing.T) {
	quads := scenarioQuads()
	reversed := make([]models.Quadruple, len(quads))
	for i, q := range quads {
		reversed[len(quads)-1-i] = q
	}

	first := CanonicalString(100, quads)
	second := CanonicalString(100, reversed)
	if first != second {
		t.Fatalf("input order changed the canonical string:\n %q\n %q", first, second)
	}
}

func TestCanonicalStringCollapsesIdenticalAdmissions(t *testing.T) {
	quads := scenarioQuads()
	other := make([]models.Quadruple, len(quads))
	copy(other, quads)
	for i := range other {
		other[i].AdmissionID = 999
	}

	if CanonicalString(100, quads) != CanonicalString(999, other) {
		t.Fatal("admissions identical up to admission id must collapse to the same string")
	}
}

func TestCanonicalStringEmptyAdmission(t *testing.T) {
	if got := CanonicalString(100, nil); got != "" {
		t.Fatalf("expected empty canonical string, got %q", got)
	}
}

func TestSerializeStripsDisambiguators(t *testing.T) {
	got := Serialize("_Window-1__MainDrug_Warfarin__Window-2_Creatinine_abnormal_")
	want := "Window_MainDrug_Warfarin_Window_Creatinine_abnormal"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
