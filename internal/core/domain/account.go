package domain

// Account is the durable per-member record holding the spendable point balance.
// PointsBalance is the only field this core mutates; it never goes below zero
// as observed by any committed read.
type Account struct {
	UserID        uint64
	Login         string
	Password      string
	PointsBalance int64
}

// User is the authentication view of an account.
type User struct {
	ID       uint64
	Login    string
	Password string
}
