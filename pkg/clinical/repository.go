package clinical

import (
	"context"
	"sort"

	"github.com/uttree-health/platform/pkg/common/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&PrescriptionRow{}, &LabEventRow{}, &ConceptRow{})
}

// SaveBatch lands one admission's incoming source records. Batches are
// append-only; re-ingesting an admission adds rows rather than rewriting
// history.
func (r *Repository) SaveBatch(ctx context.Context, prescriptions []models.PrescriptionRecord, labs []models.LabRecord, concepts []models.ConceptRecord) error {
	tx := r.db.WithContext(ctx)

	if len(prescriptions) > 0 {
		rows := make([]PrescriptionRow, 0, len(prescriptions))
		for _, rec := range prescriptions {
			rows = append(rows, PrescriptionRow{
				SubjectID:   rec.SubjectID,
				AdmissionID: rec.AdmissionID,
				StartDate:   rec.StartDate,
				EndDate:     rec.EndDate,
				DrugName:    rec.DrugName,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(labs) > 0 {
		rows := make([]LabEventRow, 0, len(labs))
		for _, rec := range labs {
			rows = append(rows, LabEventRow{
				SubjectID:   rec.SubjectID,
				AdmissionID: rec.AdmissionID,
				ChartTime:   rec.ChartTime,
				ItemID:      rec.ItemID,
				Flag:        rec.Flag,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(concepts) > 0 {
		rows := make([]ConceptRow, 0, len(concepts))
		for _, rec := range concepts {
			rows = append(rows, ConceptRow{
				SubjectID:       rec.SubjectID,
				AdmissionID:     rec.AdmissionID,
				ChartDate:       rec.ChartDate,
				SectionCategory: rec.SectionCategory,
				Label:           rec.Label,
				CanonicalName:   rec.CanonicalName,
				Negated:         rec.Negated,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	return nil
}

// AdmissionRecords is everything the quadruple builder needs for one
// admission, loaded in insertion order so the builder's source-index sort
// key is stable.
type AdmissionRecords struct {
	Prescriptions []models.PrescriptionRecord
	Labs          []models.LabRecord
	Concepts      []models.ConceptRecord
}

func (r *Repository) LoadAdmission(ctx context.Context, admissionID int64) (*AdmissionRecords, error) {
	var prescriptions []PrescriptionRow
	if err := r.db.WithContext(ctx).
		Where("admission_id = ?", admissionID).
		Order("id").
		Find(&prescriptions).Error; err != nil {
		return nil, err
	}

	var labs []LabEventRow
	if err := r.db.WithContext(ctx).
		Where("admission_id = ?", admissionID).
		Order("id").
		Find(&labs).Error; err != nil {
		return nil, err
	}

	var concepts []ConceptRow
	if err := r.db.WithContext(ctx).
		Where("admission_id = ?", admissionID).
		Order("id").
		Find(&concepts).Error; err != nil {
		return nil, err
	}

	out := &AdmissionRecords{
		Prescriptions: make([]models.PrescriptionRecord, 0, len(prescriptions)),
		Labs:          make([]models.LabRecord, 0, len(labs)),
		Concepts:      make([]models.ConceptRecord, 0, len(concepts)),
	}
	for _, row := range prescriptions {
		out.Prescriptions = append(out.Prescriptions, models.PrescriptionRecord{
			SubjectID:   row.SubjectID,
			AdmissionID: row.AdmissionID,
			StartDate:   row.StartDate,
			EndDate:     row.EndDate,
			DrugName:    row.DrugName,
		})
	}
	for _, row := range labs {
		out.Labs = append(out.Labs, models.LabRecord{
			SubjectID:   row.SubjectID,
			AdmissionID: row.AdmissionID,
			ChartTime:   row.ChartTime,
			ItemID:      row.ItemID,
			Flag:        row.Flag,
		})
	}
	for _, row := range concepts {
		out.Concepts = append(out.Concepts, models.ConceptRecord{
			SubjectID:       row.SubjectID,
			AdmissionID:     row.AdmissionID,
			ChartDate:       row.ChartDate,
			SectionCategory: row.SectionCategory,
			Label:           row.Label,
			CanonicalName:   row.CanonicalName,
			Negated:         row.Negated,
		})
	}
	return out, nil
}

// ListAdmissionIDs returns every admission id with at least one source row,
// for full-corpus runs.
func (r *Repository) ListAdmissionIDs(ctx context.Context) ([]int64, error) {
	ids := make(map[int64]struct{})
	for _, table := range []string{"prescriptions", "lab_events", "nlp_concepts"} {
		var batch []int64
		if err := r.db.WithContext(ctx).
			Table(table).
			Distinct("admission_id").
			Pluck("admission_id", &batch).Error; err != nil {
			return nil, err
		}
		for _, id := range batch {
			ids[id] = struct{}{}
		}
	}

	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
