package quadruple

import (
	"strings"
	"time"

	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/common/models"
	"github.com/uttree-health/platform/pkg/terminology"
)

const (
	// EventMainDrug labels every prescription-derived quadruple; the drug
	// name travels in the value slot.
	EventMainDrug = "MainDrug"
	// EventDiseaseMention labels every NLP-derived finding; the canonical
	// concept name travels in the value slot.
	EventDiseaseMention = "DiseaseDisorderMention"

	diseaseLabel = "DISEASE"

	flagNormal   = "normal"
	flagAbnormal = "abnormal"
)

// Stats counts records the builder had to drop. Input errors are recovered
// locally and never fail an admission.
type Stats struct {
	InputErrors int
	Kept        int
}

type Builder struct {
	catalog terminology.Catalog
}

func NewBuilder(cat terminology.Catalog) *Builder {
	return &Builder{catalog: cat}
}

// Build normalizes structured and unstructured source records into the
// common quadruple representation. It is a pure transformation: malformed
// rows are logged, counted and skipped.
func (b *Builder) Build(
	prescriptions []models.PrescriptionRecord,
	labs []models.LabRecord,
	concepts []models.ConceptRecord,
) ([]models.Quadruple, Stats) {
	var stats Stats
	quads := make([]models.Quadruple, 0, len(prescriptions)+len(labs)+len(concepts))

	quads = b.appendPrescriptions(quads, prescriptions, &stats)
	quads = b.appendLabs(quads, labs, &stats)
	quads = b.appendConcepts(quads, concepts, &stats)

	stats.Kept = len(quads)
	return quads, stats
}

// appendPrescriptions expands each prescription into one RealTime quadruple
// per calendar day of its active range, start and end inclusive.
func (b *Builder) appendPrescriptions(quads []models.Quadruple, records []models.PrescriptionRecord, stats *Stats) []models.Quadruple {
	for _, rec := range records {
		start, err := parseDate(rec.StartDate)
		if err != nil {
			stats.InputErrors++
			logger.Log.WithError(err).WithField("admission_id", rec.AdmissionID).Warn("skipping prescription with bad start date")
			continue
		}
		end, err := parseDate(rec.EndDate)
		if err != nil {
			stats.InputErrors++
			logger.Log.WithError(err).WithField("admission_id", rec.AdmissionID).Warn("skipping prescription with bad end date")
			continue
		}
		drug := strings.TrimSpace(rec.DrugName)
		if drug == "" || end.Before(start) {
			stats.InputErrors++
			continue
		}

		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			quads = append(quads, models.Quadruple{
				AdmissionID: rec.AdmissionID,
				SubjectID:   rec.SubjectID,
				Timestamp:   day,
				Type:        models.RealTime,
				Event:       EventMainDrug,
				Value:       drug,
			})
		}
	}
	return quads
}

// appendLabs emits one RealTime quadruple per lab result; the event is the
// catalog label for the item id and the value is the normal/abnormal flag.
func (b *Builder) appendLabs(quads []models.Quadruple, records []models.LabRecord, stats *Stats) []models.Quadruple {
	for _, rec := range records {
		day, err := parseDate(rec.ChartTime)
		if err != nil {
			stats.InputErrors++
			logger.Log.WithError(err).WithField("admission_id", rec.AdmissionID).Warn("skipping lab event with bad chart time")
			continue
		}
		item, ok := b.catalog.LookupLabItem(rec.ItemID)
		if !ok {
			stats.InputErrors++
			logger.Log.WithFields(map[string]interface{}{
				"admission_id": rec.AdmissionID,
				"item_id":      rec.ItemID,
			}).Warn("skipping lab event with unknown item id")
			continue
		}

		quads = append(quads, models.Quadruple{
			AdmissionID: rec.AdmissionID,
			SubjectID:   rec.SubjectID,
			Timestamp:   day,
			Type:        models.RealTime,
			Event:       item.Label,
			Value:       normalizeFlag(rec.Flag),
		})
	}
	return quads
}

// appendConcepts keeps non-negated disease findings from the NLP
// collaborator. Findings from past-medical-history sections are Retro,
// everything else is a NewFinding.
func (b *Builder) appendConcepts(quads []models.Quadruple, records []models.ConceptRecord, stats *Stats) []models.Quadruple {
	for _, rec := range records {
		if !strings.EqualFold(strings.TrimSpace(rec.Label), diseaseLabel) || rec.Negated {
			continue
		}
		day, err := parseDate(rec.ChartDate)
		if err != nil {
			stats.InputErrors++
			logger.Log.WithError(err).WithField("admission_id", rec.AdmissionID).Warn("skipping concept with bad chart date")
			continue
		}
		name := strings.TrimSpace(rec.CanonicalName)
		if name == "" {
			stats.InputErrors++
			continue
		}

		eventType := models.NewFinding
		if b.catalog.IsHistorySection(rec.SectionCategory) {
			eventType = models.Retro
		}

		quads = append(quads, models.Quadruple{
			AdmissionID: rec.AdmissionID,
			SubjectID:   rec.SubjectID,
			Timestamp:   day,
			Type:        eventType,
			Event:       EventDiseaseMention,
			Value:       name,
		})
	}
	return quads
}

func normalizeFlag(flag string) string {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" {
		return flagNormal
	}
	if f == flagAbnormal {
		return flagAbnormal
	}
	return f
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseDate accepts the date formats seen across source feeds and truncates
// to day precision in UTC; window assignment works on calendar days.
func parseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
