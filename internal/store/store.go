// Package store groups the repositories behind one handle so a set of writes can share a
// transaction.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/cart"
	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/db"
	"github.com/vasiliy-maslov/educore/internal/enrollment"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/paymentmethod"
	"github.com/vasiliy-maslov/educore/internal/user"
)

// Store is a typed registry: one repository per entity, all bound to the same connection.
type Store struct {
	Users          user.Repository
	Courses        course.Repository
	Cart           cart.Repository
	Orders         order.Repository
	Payments       payment.Repository
	PaymentMethods paymentmethod.Repository
	Enrollments    enrollment.Repository
	Activities     activity.Repository
}

// New binds every repository to conn, which may be the pool or a transaction.
func New(conn db.DBTX) *Store {
	return &Store{
		Users:          user.NewRepository(conn),
		Courses:        course.NewRepository(conn),
		Cart:           cart.NewRepository(conn),
		Orders:         order.NewRepository(conn),
		Payments:       payment.NewRepository(conn),
		PaymentMethods: paymentmethod.NewRepository(conn),
		Enrollments:    enrollment.NewRepository(conn),
		Activities:     activity.NewRepository(conn),
	}
}

// UnitOfWork runs fn against a Store whose repositories share one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(s *Store) error) error
}

type pgUnitOfWork struct {
	conn db.TxBeginner
}

func NewUnitOfWork(conn db.TxBeginner) UnitOfWork {
	return &pgUnitOfWork{conn: conn}
}

func (u *pgUnitOfWork) Do(ctx context.Context, fn func(s *Store) error) error {
	return db.WithTx(ctx, u.conn, func(tx pgx.Tx) error {
		return fn(New(tx))
	})
}
