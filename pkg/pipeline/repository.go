package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/uttree-health/platform/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrResultNotFound = errors.New("admission result not found")

// ResultRow persists one admission's pipeline outcome: the canonical
// document, the averaged embedding vector, and enough metadata to audit a
// run without replaying it.
type ResultRow struct {
	AdmissionID    int64                        `json:"admission_id" gorm:"primaryKey;column:admission_id"`
	SubjectID      int64                        `json:"subject_id" gorm:"column:subject_id;index"`
	Canonical      string                       `json:"canonical" gorm:"column:canonical;type:text"`
	Vector         datatypes.JSONSlice[float64] `json:"vector" gorm:"column:vector"`
	QuadrupleCount int                          `json:"quadruple_count" gorm:"column:quadruple_count"`
	SequenceLength int                          `json:"sequence_length" gorm:"column:sequence_length"`
	InputErrors    int                          `json:"input_errors" gorm:"column:input_errors"`
	Status         string                       `json:"status" gorm:"column:status"`
	Error          string                       `json:"error,omitempty" gorm:"column:error"`
	UpdatedAt      time.Time                    `json:"updated_at" gorm:"column:updated_at"`
}

func (ResultRow) TableName() string {
	return "admission_results"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&ResultRow{})
}

// Save upserts by admission id; re-running an admission replaces its
// previous outcome.
func (r *Repository) Save(ctx context.Context, result models.AdmissionResult, inputErrors int) error {
	row := ResultRow{
		AdmissionID:    result.AdmissionID,
		SubjectID:      result.SubjectID,
		Canonical:      result.Canonical,
		Vector:         datatypes.NewJSONSlice(result.Vector),
		QuadrupleCount: result.QuadrupleCount,
		SequenceLength: result.SequenceLength,
		InputErrors:    inputErrors,
		Status:         result.Status,
		Error:          result.Error,
		UpdatedAt:      time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "admission_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

func (r *Repository) Get(ctx context.Context, admissionID int64) (*ResultRow, error) {
	var row ResultRow
	result := r.db.WithContext(ctx).First(&row, "admission_id = ?", admissionID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrResultNotFound
	}
	return &row, result.Error
}
