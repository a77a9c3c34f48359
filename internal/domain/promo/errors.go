package promo

import "errors"

var (
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrStatusInvalid      = errors.New("invalid campaign status")
	ErrStatusConflict     = errors.New("campaign status changed since last observed")
	ErrPurchaseNotFound   = errors.New("purchase not found")
	ErrRefundNotAllowed   = errors.New("purchase is not refundable")
	ErrRefundInvariant    = errors.New("refund rollback invariant violated")
	ErrPurchaseIDRequired = errors.New("purchase id is required")
)
