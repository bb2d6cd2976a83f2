package domain

import "time"

// Department is an academic department used to group practice tests.
type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Level is a course level such as 100 or 400.
type Level struct {
	ID        string
	Value     int
	CreatedAt time.Time
}
