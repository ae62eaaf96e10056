// ABOUTME: Sentinel errors for the lifecycle engine
// ABOUTME: Every caller-visible rejection in the core is one of these
package models

import "errors"

var (
	// ErrInvalidTransition rejects a cross-group category change requested
	// without an explicit override. The contact is left unchanged.
	ErrInvalidTransition = errors.New("invalid category transition")

	// ErrAlreadySent rejects a second send of the same draft. No side effect.
	ErrAlreadySent = errors.New("message already sent")

	// ErrIneligibleChannel marks a send blocked by the channel eligibility
	// gate (non-domestic phone on SMS). Routed to a manual-followup flag.
	ErrIneligibleChannel = errors.New("channel not eligible for sending")

	// ErrDraftDiscarded rejects approving or sending a discarded draft.
	ErrDraftDiscarded = errors.New("draft discarded")

	// ErrAlreadyApproved rejects discarding an approved draft. Discard is
	// the pre-approval skip; an approved draft either sends or stays put.
	ErrAlreadyApproved = errors.New("draft already approved")

	// ErrNotApproved rejects sending a draft that has not been approved.
	ErrNotApproved = errors.New("draft not approved")
)
