package mongodb

const (
	ProfilesCollection = "users"    // Application profile documents
	AccountsCollection = "accounts" // Identity provider credential records
)
