package clinical

import "time"

// Source rows as landed by the ingestion service. Dates stay in their raw
// string form here; the quadruple builder owns parsing and validation.

type PrescriptionRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement;column:id"`
	SubjectID   int64  `gorm:"column:subject_id;index"`
	AdmissionID int64  `gorm:"column:admission_id;index"`
	StartDate   string `gorm:"column:start_date"`
	EndDate     string `gorm:"column:end_date"`
	DrugName    string `gorm:"column:drug_name"`
	CreatedAt   time.Time
}

func (PrescriptionRow) TableName() string {
	return "prescriptions"
}

type LabEventRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement;column:id"`
	SubjectID   int64  `gorm:"column:subject_id;index"`
	AdmissionID int64  `gorm:"column:admission_id;index"`
	ChartTime   string `gorm:"column:chart_time"`
	ItemID      int64  `gorm:"column:item_id"`
	Flag        string `gorm:"column:flag"`
	CreatedAt   time.Time
}

func (LabEventRow) TableName() string {
	return "lab_events"
}

// ConceptRow holds one entity-linked finding from the NLP collaborator.
type ConceptRow struct {
	ID              int64  `gorm:"primaryKey;autoIncrement;column:id"`
	SubjectID       int64  `gorm:"column:subject_id;index"`
	AdmissionID     int64  `gorm:"column:admission_id;index"`
	ChartDate       string `gorm:"column:chart_date"`
	SectionCategory string `gorm:"column:section_category"`
	Label           string `gorm:"column:label"`
	CanonicalName   string `gorm:"column:canonical_name"`
	Negated         bool   `gorm:"column:negated"`
	CreatedAt       time.Time
}

func (ConceptRow) TableName() string {
	return "nlp_concepts"
}
