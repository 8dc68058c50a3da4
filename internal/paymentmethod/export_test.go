package paymentmethod

import "time"

// NewServiceWithClock lets tests pin the current date used for expiry checks.
func NewServiceWithClock(repo Repository, tx Transactor, now func() time.Time) Service {
	return &service{repo: repo, tx: tx, now: now}
}
