package category

// Type mirrors the ledger kind a category applies to
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// IsValid reports whether t is a known category type
func (t Type) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// FallbackID is the category used when a name lookup finds nothing.
// The seed file puts "Other" first so that it receives this id.
const FallbackID int64 = 1

// Category groups ledger rows. OwnerID is nil for global categories.
type Category struct {
	ID      int64
	OwnerID *int64
	Name    string
	Type    Type
}
