package controller

import (
	"fmt"
	"io"
	"sync"
)

// Level tells success and failure notifications apart
type Level int

const (
	LevelSuccess Level = iota
	LevelFailure
)

// Notification is a single toast
type Notification struct {
	Level   Level
	Message string
}

// PrintNotifier writes notifications as lines, for non-interactive commands
type PrintNotifier struct {
	W io.Writer
}

func (p PrintNotifier) Success(msg string) { fmt.Fprintf(p.W, "✅ %s\n", msg) }
func (p PrintNotifier) Failure(msg string) { fmt.Fprintf(p.W, "❌ %s\n", msg) }

// Queue buffers notifications until a view drains them
type Queue struct {
	mu    sync.Mutex
	items []Notification
}

func (q *Queue) Success(msg string) { q.push(Notification{Level: LevelSuccess, Message: msg}) }
func (q *Queue) Failure(msg string) { q.push(Notification{Level: LevelFailure, Message: msg}) }

func (q *Queue) push(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

// Drain returns and forgets everything queued so far
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
