// Package memstore is an in-memory implementation of the store repositories for tests. It keeps
// the uniqueness rules of the SQL schema and rolls a unit of work back on error.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/cart"
	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/enrollment"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/store"
	"github.com/vasiliy-maslov/educore/internal/user"
)

type pairKey struct {
	user   uuid.UUID
	course int64
}

type cartRow struct {
	addedAt time.Time
	seq     int64
}

type state struct {
	users       map[uuid.UUID]user.User
	courses     map[int64]course.Course
	cart        map[pairKey]cartRow
	orders      map[int64]order.Order
	payments    map[int64]payment.Payment // keyed by order id
	enrollments map[pairKey]enrollment.Enrollment
	activities  []activity.Activity
	seq         int64
}

func (s *state) clone() state {
	c := state{
		users:       make(map[uuid.UUID]user.User, len(s.users)),
		courses:     make(map[int64]course.Course, len(s.courses)),
		cart:        make(map[pairKey]cartRow, len(s.cart)),
		orders:      make(map[int64]order.Order, len(s.orders)),
		payments:    make(map[int64]payment.Payment, len(s.payments)),
		enrollments: make(map[pairKey]enrollment.Enrollment, len(s.enrollments)),
		activities:  append([]activity.Activity(nil), s.activities...),
		seq:         s.seq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]order.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.enrollments {
		c.enrollments[k] = v
	}
	return c
}

// DB holds all rows. Operations named in Fail return the configured error.
type DB struct {
	mu    sync.Mutex
	st    state
	fails map[string]error
}

func New() *DB {
	return &DB{
		st: state{
			users:       make(map[uuid.UUID]user.User),
			courses:     make(map[int64]course.Course),
			cart:        make(map[pairKey]cartRow),
			orders:      make(map[int64]order.Order),
			payments:    make(map[int64]payment.Payment),
			enrollments: make(map[pairKey]enrollment.Enrollment),
		},
		fails: make(map[string]error),
	}
}

// Fail makes the named operation (for example "payments.create") return err until cleared with
// a nil err.
func (d *DB) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fails, op)
		return
	}
	d.fails[op] = err
}

func (d *DB) failure(op string) error {
	return d.fails[op]
}

func (d *DB) nextID() int64 {
	d.st.seq++
	return d.st.seq
}

// Store returns repositories bound to d.
func (d *DB) Store() *store.Store {
	return &store.Store{
		Users:       userRepo{d},
		Courses:     courseRepo{d},
		Cart:        cartRepo{d},
		Orders:      orderRepo{d},
		Payments:    paymentRepo{d},
		Enrollments: enrollmentRepo{d},
		Activities:  activityRepo{d},
	}
}

// UnitOfWork restores every row when fn fails.
func (d *DB) UnitOfWork() store.UnitOfWork {
	return uow{d}
}

type uow struct{ d *DB }

func (u uow) Do(ctx context.Context, fn func(s *store.Store) error) (err error) {
	u.d.mu.Lock()
	snapshot := u.d.st.clone()
	u.d.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			u.d.restore(snapshot)
			panic(p)
		}
		if err != nil {
			u.d.restore(snapshot)
		}
	}()
	return fn(u.d.Store())
}

func (d *DB) restore(s state) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st = s
}

// Seeding and inspection helpers.

func (d *DB) AddUser(u user.User) user.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.Must(uuid.NewV4())
	}
	if u.Role == "" {
		u.Role = user.RoleStudent
	}
	d.st.users[u.ID] = u
	return u
}

func (d *DB) AddCourse(title, price string) course.Course {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := course.Course{ID: d.nextID(), Title: title, Price: decimal.RequireFromString(price), CreatedAt: time.Now()}
	d.st.courses[c.ID] = c
	return c
}

func (d *DB) AddToCart(userID uuid.UUID, courseIDs ...int64) {
	for _, id := range courseIDs {
		_, _ = cartRepo{d}.Add(context.Background(), userID, id)
	}
}

func (d *DB) Orders() []order.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]order.Order, 0, len(d.st.orders))
	for _, o := range d.st.orders {
		o.Items = append([]order.OrderItem(nil), o.Items...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *DB) Payments() []payment.Payment {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]payment.Payment, 0, len(d.st.payments))
	for _, p := range d.st.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *DB) Enrollments() []enrollment.Enrollment {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]enrollment.Enrollment, 0, len(d.st.enrollments))
	for _, e := range d.st.enrollments {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *DB) Activities() []activity.Activity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]activity.Activity(nil), d.st.activities...)
}

func (d *DB) CartCourseIDs(userID uuid.UUID) []int64 {
	ids, _ := cartRepo{d}.CourseIDs(context.Background(), userID)
	return ids
}

func (d *DB) Course(id int64) (course.Course, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.st.courses[id]
	return c, ok
}

// SetOrderUpdatedAt backdates an order, e.g. to make it stale.
func (d *DB) SetOrderUpdatedAt(id int64, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if o, ok := d.st.orders[id]; ok {
		o.UpdatedAt = at
		d.st.orders[id] = o
	}
}

// users

type userRepo struct{ d *DB }

func (r userRepo) Create(_ context.Context, u *user.User) (uuid.UUID, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("users.create"); err != nil {
		return uuid.Nil, err
	}
	for _, existing := range r.d.st.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return uuid.Nil, user.ErrEmailExists
		}
	}
	u.ID = uuid.Must(uuid.NewV4())
	if u.Role == "" {
		u.Role = user.RoleStudent
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.d.st.users[u.ID] = *u
	return u.ID, nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.st.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, u := range r.d.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

// courses

type courseRepo struct{ d *DB }

func (r courseRepo) List(_ context.Context, f course.Filter) ([]course.Course, int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	all := make([]course.Course, 0)
	for _, c := range r.d.st.courses {
		if f.CategoryID != nil && (c.CategoryID == nil || *c.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if f.PageSize <= 0 {
		f.PageSize = course.DefaultPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	start := (f.Page - 1) * f.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + f.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r courseRepo) GetByID(_ context.Context, id int64) (*course.Course, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.st.courses[id]
	if !ok {
		return nil, course.ErrCourseNotFound
	}
	return &c, nil
}

func (r courseRepo) GetByIDs(_ context.Context, ids []int64) ([]course.Course, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("courses.get_by_ids"); err != nil {
		return nil, err
	}
	out := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.d.st.courses[id]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r courseRepo) Create(_ context.Context, c *course.Course) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c.ID = r.d.nextID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.d.st.courses[c.ID] = *c
	return nil
}

func (r courseRepo) Update(_ context.Context, c *course.Course) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	existing, ok := r.d.st.courses[c.ID]
	if !ok {
		return course.ErrCourseNotFound
	}
	if existing.IsPurchased {
		return course.ErrCourseLocked
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now()
	r.d.st.courses[c.ID] = *c
	return nil
}

func (r courseRepo) Delete(_ context.Context, id int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	existing, ok := r.d.st.courses[id]
	if !ok {
		return course.ErrCourseNotFound
	}
	if existing.IsPurchased {
		return course.ErrCourseLocked
	}
	delete(r.d.st.courses, id)
	return nil
}

func (r courseRepo) MarkPurchased(_ context.Context, ids []int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("courses.mark_purchased"); err != nil {
		return err
	}
	for _, id := range ids {
		if c, ok := r.d.st.courses[id]; ok {
			c.IsPurchased = true
			r.d.st.courses[id] = c
		}
	}
	return nil
}

// cart

type cartRepo struct{ d *DB }

func (r cartRepo) Add(_ context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	k := pairKey{userID, courseID}
	if _, ok := r.d.st.cart[k]; ok {
		return false, nil
	}
	r.d.st.cart[k] = cartRow{addedAt: time.Now(), seq: r.d.nextID()}
	return true, nil
}

func (r cartRepo) Remove(_ context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	k := pairKey{userID, courseID}
	if _, ok := r.d.st.cart[k]; !ok {
		return false, nil
	}
	delete(r.d.st.cart, k)
	return true, nil
}

func (r cartRepo) RemoveCourses(_ context.Context, userID uuid.UUID, ids []int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, id := range ids {
		delete(r.d.st.cart, pairKey{userID, id})
	}
	return nil
}

func (r cartRepo) Clear(_ context.Context, userID uuid.UUID) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for k := range r.d.st.cart {
		if k.user == userID {
			delete(r.d.st.cart, k)
		}
	}
	return nil
}

func (r cartRepo) sortedKeys(userID uuid.UUID) []pairKey {
	keys := make([]pairKey, 0)
	for k := range r.d.st.cart {
		if k.user == userID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return r.d.st.cart[keys[i]].seq < r.d.st.cart[keys[j]].seq })
	return keys
}

func (r cartRepo) ListCourses(_ context.Context, userID uuid.UUID) ([]course.Course, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	keys := r.sortedKeys(userID)
	out := make([]course.Course, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if c, ok := r.d.st.courses[keys[i].course]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r cartRepo) CourseIDs(_ context.Context, userID uuid.UUID) ([]int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	keys := r.sortedKeys(userID)
	out := make([]int64, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.course)
	}
	return out, nil
}

// orders

type orderRepo struct{ d *DB }

func (r orderRepo) Create(_ context.Context, o *order.Order) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("orders.create"); err != nil {
		return err
	}
	if o.IdempotencyKey != nil {
		for _, existing := range r.d.st.orders {
			if existing.UserID == o.UserID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *o.IdempotencyKey {
				return order.ErrDuplicateIdempotent
			}
		}
	}
	now := time.Now().UTC()
	o.ID = r.d.nextID()
	o.CreatedAt = now
	o.UpdatedAt = now
	seen := make(map[int64]bool, len(o.Items))
	for i := range o.Items {
		if seen[o.Items[i].CourseID] {
			return errors.New("memstore: duplicate order item")
		}
		seen[o.Items[i].CourseID] = true
		o.Items[i].ID = r.d.nextID()
		o.Items[i].OrderID = o.ID
		o.Items[i].PurchasedAt = now
	}
	stored := *o
	stored.Items = append([]order.OrderItem(nil), o.Items...)
	r.d.st.orders[o.ID] = stored
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	o, ok := r.d.st.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o.Items = append([]order.OrderItem(nil), o.Items...)
	return &o, nil
}

func (r orderRepo) GetByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, o := range r.d.st.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			o.Items = append([]order.OrderItem(nil), o.Items...)
			return &o, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r orderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]order.Order, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range r.d.st.orders {
		if o.UserID == userID {
			o.Items = append([]order.OrderItem(nil), o.Items...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r orderRepo) UpdateStatusFrom(_ context.Context, id int64, from, to order.OrderStatus) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("orders.update_status"); err != nil {
		return false, err
	}
	o, ok := r.d.st.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	r.d.st.orders[id] = o
	if to == order.StatusRefunded {
		if p, ok := r.d.st.payments[id]; ok && p.Status == payment.StatusSucceeded {
			p.Status = payment.StatusRefunded
			r.d.st.payments[id] = p
		}
	}
	return true, nil
}

func (r orderRepo) ListStale(_ context.Context, status order.OrderStatus, olderThan time.Time, limit int) ([]order.Order, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range r.d.st.orders {
		if o.Status == status && o.UpdatedAt.Before(olderThan) {
			o.Items = append([]order.OrderItem(nil), o.Items...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// payments

type paymentRepo struct{ d *DB }

func (r paymentRepo) Create(_ context.Context, p *payment.Payment) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("payments.create"); err != nil {
		return err
	}
	if _, ok := r.d.st.payments[p.OrderID]; ok {
		return errors.New("memstore: payment for order already exists")
	}
	p.ID = r.d.nextID()
	p.CreatedAt = time.Now().UTC()
	r.d.st.payments[p.OrderID] = *p
	return nil
}

func (r paymentRepo) GetByOrderID(_ context.Context, orderID int64) (*payment.Payment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.st.payments[orderID]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return &p, nil
}

func (r paymentRepo) MarkSucceeded(_ context.Context, orderID int64, transactionID string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.st.payments[orderID]
	if !ok || p.Status != payment.StatusProcessing {
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = payment.StatusSucceeded
	if transactionID != "" {
		p.TransactionID = transactionID
	}
	p.ProcessedAt = &now
	r.d.st.payments[orderID] = p
	return true, nil
}

func (r paymentRepo) MarkFailed(_ context.Context, orderID int64, reason string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.st.payments[orderID]
	if !ok || p.Status != payment.StatusProcessing {
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = payment.StatusFailed
	p.FailureReason = reason
	p.ProcessedAt = &now
	r.d.st.payments[orderID] = p
	return true, nil
}

// enrollments

type enrollmentRepo struct{ d *DB }

func (r enrollmentRepo) insertLocked(userID uuid.UUID, courseID int64) (enrollment.Enrollment, bool) {
	k := pairKey{userID, courseID}
	if e, ok := r.d.st.enrollments[k]; ok {
		return e, false
	}
	e := enrollment.Enrollment{ID: r.d.nextID(), UserID: userID, CourseID: courseID, EnrolledAt: time.Now().UTC()}
	if c, ok := r.d.st.courses[courseID]; ok {
		e.CourseTitle = c.Title
	}
	r.d.st.enrollments[k] = e
	return e, true
}

func (r enrollmentRepo) Insert(_ context.Context, e *enrollment.Enrollment) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	created, ok := r.insertLocked(e.UserID, e.CourseID)
	if !ok {
		return enrollment.ErrAlreadyEnrolled
	}
	*e = created
	return nil
}

func (r enrollmentRepo) EnsureEnrolled(_ context.Context, userID uuid.UUID, courseIDs []int64) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("enrollments.ensure"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range courseIDs {
		if _, created := r.insertLocked(userID, id); created {
			n++
		}
	}
	return n, nil
}

func (r enrollmentRepo) Get(_ context.Context, userID uuid.UUID, courseID int64) (*enrollment.Enrollment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	e, ok := r.d.st.enrollments[pairKey{userID, courseID}]
	if !ok {
		return nil, enrollment.ErrEnrollmentNotFound
	}
	return &e, nil
}

func (r enrollmentRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]enrollment.Enrollment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]enrollment.Enrollment, 0)
	for k, e := range r.d.st.enrollments {
		if k.user == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r enrollmentRepo) Touch(_ context.Context, userID uuid.UUID, courseID int64, at time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	k := pairKey{userID, courseID}
	if e, ok := r.d.st.enrollments[k]; ok {
		e.LastAccessedAt = &at
		r.d.st.enrollments[k] = e
	}
	return nil
}

func (r enrollmentRepo) UpdateProgress(_ context.Context, userID uuid.UUID, courseID int64, pct int, complete bool, at time.Time) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	k := pairKey{userID, courseID}
	e, ok := r.d.st.enrollments[k]
	if !ok || e.IsCompleted {
		return false, nil
	}
	e.ProgressPercentage = pct
	e.LastAccessedAt = &at
	if complete {
		e.ProgressPercentage = 100
		e.IsCompleted = true
		e.CompletedAt = &at
	}
	r.d.st.enrollments[k] = e
	return true, nil
}

// activities

type activityRepo struct{ d *DB }

func (r activityRepo) Append(_ context.Context, a *activity.Activity) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("activities.append"); err != nil {
		return err
	}
	a.ID = r.d.nextID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.d.st.activities = append(r.d.st.activities, *a)
	return nil
}

func (r activityRepo) Recent(_ context.Context, limit int) ([]activity.Activity, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]activity.Activity, 0, limit)
	for i := len(r.d.st.activities) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.d.st.activities[i])
	}
	return out, nil
}

var (
	_ user.Repository       = userRepo{}
	_ course.Repository     = courseRepo{}
	_ cart.Repository       = cartRepo{}
	_ order.Repository      = orderRepo{}
	_ payment.Repository    = paymentRepo{}
	_ enrollment.Repository = enrollmentRepo{}
	_ activity.Repository   = activityRepo{}
)
