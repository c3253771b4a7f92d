package analytics

import "fmt"

// SchemaError reports a required field that is absent from every record in
// the input batch. It is fatal for the whole run: no aggregation starts
// without it passing.
type SchemaError struct {
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: required field %s missing from input batch", e.Field)
}

// IntegrityError reports a broken 1:1 join between the contact-frequency
// output and the source batch. It is fatal for the table being built but
// must not block aggregators that do not consume the join.
type IntegrityError struct {
	TacticID string
	Reason   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error: tactic %s: %s", e.TacticID, e.Reason)
}
