package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errInvalidSource    = errors.New("invalid source")
	errEmptyBatch       = errors.New("batch carries no records")
	errMissingAdmission = errors.New("admission id required")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type Validator struct {
	allowedSources map[string]struct{}
}

func NewValidator(sources []string) *Validator {
	vs := make(map[string]struct{})
	for _, src := range sources {
		if trimmed := strings.TrimSpace(strings.ToLower(src)); trimmed != "" {
			vs[trimmed] = struct{}{}
		}
	}
	return &Validator{allowedSources: vs}
}

func (v *Validator) Validate(req BatchRequest) error {
	if v == nil {
		return ValidationError{reason: errors.New("validator not initialised")}
	}

	source := strings.TrimSpace(strings.ToLower(req.Source))
	if source == "" {
		return ValidationError{reason: fmt.Errorf("source required: %w", errInvalidSource)}
	}
	if len(v.allowedSources) > 0 {
		if _, ok := v.allowedSources[source]; !ok {
			return ValidationError{reason: fmt.Errorf("source '%s' not allowed: %w", source, errInvalidSource)}
		}
	}

	if req.AdmissionID <= 0 {
		return ValidationError{reason: errMissingAdmission}
	}

	if len(req.Prescriptions) == 0 && len(req.Labs) == 0 && len(req.Concepts) == 0 {
		return ValidationError{reason: errEmptyBatch}
	}

	for _, rec := range req.Prescriptions {
		if rec.AdmissionID != req.AdmissionID {
			return ValidationError{reason: fmt.Errorf("prescription admission id %d does not match batch %d", rec.AdmissionID, req.AdmissionID)}
		}
	}
	for _, rec := range req.Labs {
		if rec.AdmissionID != req.AdmissionID {
			return ValidationError{reason: fmt.Errorf("lab admission id %d does not match batch %d", rec.AdmissionID, req.AdmissionID)}
		}
	}
	for _, rec := range req.Concepts {
		if rec.AdmissionID != req.AdmissionID {
			return ValidationError{reason: fmt.Errorf("concept admission id %d does not match batch %d", rec.AdmissionID, req.AdmissionID)}
		}
	}

	return nil
}
