package commission

import "errors"

var (
	ErrTierNotFound              = errors.New("commission tier not found")
	ErrCommissionAlreadyPaid     = errors.New("commission already paid for this contract")
	ErrCommissionPaymentNotFound = errors.New("commission payment not found")
	ErrContractNotOwnedByAgent   = errors.New("contract does not belong to this sales agent")
)
