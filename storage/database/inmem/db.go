package inmemdb

import (
	"sync"

	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

// DB is a process-local store, used by tests and by the API when DB_ENGINE=memory.
// A single lock guards every table so cross-table operations (user purge) stay atomic.
type DB struct {
	mutex sync.RWMutex
	seq   int64

	users       map[int64]*user.User
	attendance  []academics.Attendance
	grades      []academics.Grade
	leaves      []academics.Leave
	slots       []academics.TimetableSlot
	assignments []academics.Assignment
	payments    []academics.Payment
	messages    []academics.Message
	events      []academics.Event
	feedback    []academics.Feedback
}

func NewDB() *DB {
	return &DB{users: make(map[int64]*user.User)}
}

// nextID must be called with the write lock held.
func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}
