package domain

import "errors"

// Transfer and account errors carried up to the boundary as typed values.
// The HTTP layer owns the translation to user-visible messages and statuses;
// services return these unmodified, optionally wrapped with %w.
var (
	// ErrAccountNotFound indicates an account ID that does not resolve to a row.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRecipientNotFound indicates the recipient identifier does not resolve
	// to an account.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSelfTransfer indicates sender and recipient resolve to the same account.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")

	// ErrInvalidAmount indicates a non-positive, unparsable, or out-of-bounds
	// transfer amount.
	ErrInvalidAmount = errors.New("invalid transfer amount")

	// ErrInvalidDescription indicates a description exceeding the bounded length.
	ErrInvalidDescription = errors.New("description too long")

	// ErrInsufficientFunds indicates the sender balance check failed under lock.
	// A failed transaction record is persisted for audit when this is returned
	// by the transfer engine.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransferFailed indicates an infrastructure failure inside the atomic
	// unit of work. No transaction record is guaranteed to exist and no balance
	// was mutated.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrTransactionNotFound indicates a transaction ID with no ledger entry.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrEmailTaken indicates a registration attempt with an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden indicates the requester is not a participant in the resource.
	ErrForbidden = errors.New("access to this resource is forbidden")
)
