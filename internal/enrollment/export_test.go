package enrollment

import "time"

func NewServiceWithClock(repo Repository, courses CourseGetter, now func() time.Time) Service {
	return &service{repo: repo, courses: courses, now: now}
}
