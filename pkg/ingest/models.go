package ingest

import (
	"time"

	"github.com/uttree-health/platform/pkg/common/models"
	"gorm.io/datatypes"
)

const (
	StatusAccepted  = "accepted"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// BatchRequest is one delivery of source records for a single admission,
// from either the EMR export (prescriptions, labs) or the NLP collaborator
// (concept records). A batch may carry any mix of the three.
type BatchRequest struct {
	Source        string                      `json:"source"` // emr, lab, nlp
	AdmissionID   int64                       `json:"admission_id"`
	SubjectID     int64                       `json:"subject_id"`
	Prescriptions []models.PrescriptionRecord `json:"prescriptions,omitempty"`
	Labs          []models.LabRecord          `json:"labs,omitempty"`
	Concepts      []models.ConceptRecord      `json:"concepts,omitempty"`
	Metadata      map[string]string           `json:"metadata,omitempty"`
}

type BatchResponse struct {
	ID          string    `json:"id"`
	AdmissionID int64     `json:"admission_id"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Record is the intake audit row: what arrived, from whom, and whether the
// admission-ready event made it onto the bus.
type Record struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id"`
	Source      string            `json:"source" gorm:"column:source"`
	AdmissionID int64             `json:"admission_id" gorm:"column:admission_id;index"`
	SubjectID   int64             `json:"subject_id" gorm:"column:subject_id"`
	Counts      datatypes.JSONMap `json:"counts" gorm:"column:counts"`
	Status      string            `json:"status" gorm:"column:status"`
	Error       string            `json:"error,omitempty" gorm:"column:error"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"column:updated_at"`
}

func (Record) TableName() string {
	return "ingest_batches"
}
