// Package queue hands notification sends off to a worker, either in process
// or through Kafka.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

// Job is one channel send for one triggered alert
type Job struct {
	ID         uuid.UUID     `json:"id"`
	Channel    model.Channel `json:"channel"`
	AlertID    int64         `json:"alert_id"`
	UserID     int64         `json:"user_id"`
	ProductID  int64         `json:"product_id"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// NewJob creates a job for sending alert on ch
func NewJob(ch model.Channel, alert *model.Alert) Job {
	return Job{
		ID:         uuid.New(),
		Channel:    ch,
		AlertID:    alert.ID,
		UserID:     alert.UserID,
		ProductID:  alert.ProductID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Key is the partition key; jobs of the same alert stay ordered
func (j Job) Key() string {
	return fmt.Sprintf("alert-%d", j.AlertID)
}

// Queue accepts jobs. A nil error means the job was handed off.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Handler performs the send described by a job
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, job Job) error

// Handle calls f(ctx, job)
func (f HandlerFunc) Handle(ctx context.Context, job Job) error {
	return f(ctx, job)
}
