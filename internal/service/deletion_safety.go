package service

import "procurehub/internal/model"

// VerifyDeletionSafety decides whether a request may be deleted given its own
// two statuses and its product's status. Pure — no store access, no side
// effects.
//
// Active product: only an untouched PENDING request may go. Inactive product:
// the resolution workflow must have run to completion first. SHIPPED requests
// are handled outside this table — they are always deletable, but only through
// the archival path.
func VerifyDeletionSafety(requestStatus, resolutionStatus, productStatus string) bool {
	switch productStatus {
	case model.ProductStatusActive:
		return requestStatus == model.RequestStatusPending
	case model.ProductStatusInactive:
		return resolutionStatus == model.ResolutionResolved
	default:
		return false
	}
}
