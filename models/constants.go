package models

// Contribution lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusDeposited = "deposited" // cash received and counted
	StatusCancelled = "cancelled"
)

var ContributionStatuses = []string{StatusPending, StatusDeposited, StatusCancelled}

// Contribution types.
const (
	TypeCash = "cash"
	TypeItem = "item"
)

var ContributionTypes = []string{TypeCash, TypeItem}

// Expense categories.
const (
	CategoryMahaprasad = "Mahaprasad"
	CategoryDecoration = "Decoration"
	CategoryMandap     = "Mandap"
	CategorySound      = "Sound"
	CategoryOther      = "Other"
)

var ExpenseCategories = []string{
	CategoryMahaprasad,
	CategoryDecoration,
	CategoryMandap,
	CategorySound,
	CategoryOther,
}

// Contributor categories.
const (
	ContributorParent = "Parents"
	ContributorBoy    = "Boys"
	ContributorGirl   = "Girls"
)

var ContributorCategories = []string{ContributorParent, ContributorBoy, ContributorGirl}

// User roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

var UserRoles = []string{RoleAdmin, RoleViewer}

func IsValidEnum(value string, allowed []string) bool {
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}
