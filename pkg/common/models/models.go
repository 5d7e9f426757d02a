package models

import (
	"fmt"
	"time"
)

// TemporalEventType classifies a clinical event by how its timestamp relates
// to the admission: RealTime events were charted on the day they happened,
// Retro events restate past medical history, NewFinding events are findings
// first documented during the current stay.
type TemporalEventType string

const (
	RealTime   TemporalEventType = "RealTime"
	Retro      TemporalEventType = "Retro"
	NewFinding TemporalEventType = "NewFinding"
)

func ParseTemporalEventType(s string) (TemporalEventType, error) {
	switch TemporalEventType(s) {
	case RealTime, Retro, NewFinding:
		return TemporalEventType(s), nil
	}
	return "", fmt.Errorf("unknown temporal event type %q", s)
}

// Quadruple is the atomic clinical fact: one timestamped event with a value,
// tagged with its temporal event type. Immutable once built.
type Quadruple struct {
	AdmissionID int64             `json:"admission_id"`
	SubjectID   int64             `json:"subject_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Type        TemporalEventType `json:"temporal_event_type"`
	Event       string            `json:"event"`
	Value       string            `json:"value"`
}

// Source records as handed over by upstream collaborators. Dates arrive as
// strings and are parsed (and validated) by the quadruple builder.

type PrescriptionRecord struct {
	SubjectID   int64  `json:"subject_id"`
	AdmissionID int64  `json:"admission_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	DrugName    string `json:"drug_name"`
}

type LabRecord struct {
	SubjectID   int64  `json:"subject_id"`
	AdmissionID int64  `json:"admission_id"`
	ChartTime   string `json:"chart_time"`
	ItemID      int64  `json:"item_id"`
	Flag        string `json:"flag"`
}

// ConceptRecord is emitted by the external NLP/entity-linking collaborator.
type ConceptRecord struct {
	SubjectID       int64  `json:"subject_id"`
	AdmissionID     int64  `json:"admission_id"`
	ChartDate       string `json:"chart_date"`
	SectionCategory string `json:"section_category"`
	Label           string `json:"label"`
	CanonicalName   string `json:"canonical_name"`
	Negated         bool   `json:"negated"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // admission-ready, admission-embedded
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// AdmissionResult is the per-admission pipeline outcome handed downstream.
type AdmissionResult struct {
	AdmissionID    int64     `json:"admission_id"`
	SubjectID      int64     `json:"subject_id"`
	Canonical      string    `json:"canonical"`
	Vector         []float64 `json:"vector,omitempty"`
	QuadrupleCount int       `json:"quadruple_count"`
	SequenceLength int       `json:"sequence_length"`
	Status         string    `json:"status"` // succeeded, skipped, failed
	Error          string    `json:"error,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}

const (
	StatusSucceeded = "succeeded"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// RunSummary reports a whole pipeline run; one bad admission never aborts
// the run, it just lands in one of these buckets.
type RunSummary struct {
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	InputErrors int       `json:"input_errors"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
