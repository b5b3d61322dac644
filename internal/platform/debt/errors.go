package debt

import apperrors "github.com/budgetly/backend/internal/shared/errors"

var (
	// Validation errors
	ErrInvalidAmount       = apperrors.Validation("amount must be greater than 0")
	ErrAmountPrecision     = apperrors.Validation("amount must have at most 2 decimal places")
	ErrAmountTooLarge      = apperrors.Validation("amount must be less than 10^18")
	ErrInvalidKind         = apperrors.Validation("type must be payment or increase")
	ErrMissingDebtName     = apperrors.Validation("debt name is required")
	ErrDebtNameTooLong     = apperrors.Validation("debt name exceeds 255 characters")
	ErrInvalidInterestRate = apperrors.Validation("interest rate cannot be negative")
	ErrInterestRateRange   = apperrors.Validation("interest rate must be below 1000 with at most 4 decimal places")

	// Repository errors
	ErrDebtNotFound        = apperrors.NotFound("debt")
	ErrTransactionNotFound = apperrors.NotFound("debt transaction")
)
