// Package experiment implements deterministic variant assignment and
// control/treatment winner analysis for the experimentation layer.
package experiment

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// Assignment is the stable (experiment, customer) outcome.
type Assignment struct {
	Variant string
	Bucket  int
}

const (
	VariantControl   = "control"
	VariantTreatment = "treatment"
)

// AssignVariant deterministically hashes (customerID, experimentID) into a
// bucket in [0, 100), so repeated calls for the same pair always return the
// same assignment without needing to consult storage first. Buckets below
// controlPct fall into the control arm.
func AssignVariant(customerID, experimentID string, controlPct int) Assignment {
	h := sha256.New()
	h.Write([]byte(customerID))
	if parsed, err := uuid.Parse(experimentID); err == nil {
		h.Write(parsed[:])
	} else {
		h.Write([]byte(experimentID))
	}
	sum := h.Sum(nil)

	bucket := (int(sum[0])*256 + int(sum[1])) % 100
	variant := VariantTreatment
	if bucket < controlPct {
		variant = VariantControl
	}
	return Assignment{Variant: variant, Bucket: bucket}
}
