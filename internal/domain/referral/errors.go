package referral

import "errors"

var (
	ErrNotFound         = errors.New("referral not found")
	ErrStatusInvalid    = errors.New("invalid referral status")
	ErrDecisionInvalid  = errors.New("invalid review decision")
	ErrStatusConflict   = errors.New("referral status changed since last observed")
	ErrDecisionConflict = errors.New("decision not legal from current status")
)
