package editorial

import "fmt"

// SchemaViolation reports a digest plan missing or blanking a required
// field. Any schema violation is fatal for the run.
type SchemaViolation struct {
	Field string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("digest plan schema violation: missing or empty field %q", e.Field)
}

// UnknownFingerprintError reports a plan referencing a fingerprint that does
// not exist in the memo. Fatal for the run.
type UnknownFingerprintError struct {
	Fingerprint string
	Section     string
}

func (e *UnknownFingerprintError) Error() string {
	return fmt.Sprintf("digest plan references unknown fingerprint %q in %s", e.Fingerprint, e.Section)
}
