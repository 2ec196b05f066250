package domain

// Membership links a user to a team. UserEmail is filled on reads that
// join the user row.
type Membership struct {
	UserID    int64
	TeamID    int64
	UserEmail string
}
