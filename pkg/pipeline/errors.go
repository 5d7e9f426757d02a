package pipeline

import "errors"

// StructuralError marks an admission whose sources yielded no usable
// quadruples. Such admissions are skipped, never failed: an empty canonical
// label is a valid outcome the caller may filter downstream.
type StructuralError struct {
	reason error
}

func (e StructuralError) Error() string {
	return e.reason.Error()
}

func (e StructuralError) Unwrap() error {
	return e.reason
}

func IsStructuralError(err error) bool {
	var se StructuralError
	return errors.As(err, &se)
}
