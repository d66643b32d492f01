package notification

import (
	"context"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"ezystaff-backend/internal/model"
	"ezystaff-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// deliveryJob is one encrypted push to one stored endpoint.
type deliveryJob struct {
	sub     model.PushSubscription
	payload []byte
}

// WorkerPool drains push deliveries off the request path. Every failure is
// logged and swallowed; the notification record is already durable by the
// time a job is enqueued.
type WorkerPool struct {
	size    int
	jobs    chan deliveryJob
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan deliveryJob, size*4),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("push worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.deliver(ctx, job)
		case <-ctx.Done():
			log.Printf("push worker %d shutting down", id)
			return
		}
	}
}

// Enqueue hands a delivery to the pool.
func (wp *WorkerPool) Enqueue(sub model.PushSubscription, payload []byte) {
	wp.jobs <- deliveryJob{sub: sub, payload: payload}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan deliveryJob {
	return wp.jobs
}

// deliver sends a single web push notification.
func (wp *WorkerPool) deliver(ctx context.Context, job deliveryJob) {
	wpSub := &webpush.Subscription{
		Endpoint: job.sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: job.sub.P256DH,
			Auth:   job.sub.Auth,
		},
	}

	resp, err := wp.sender.Send(job.payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending push to %s: %v", job.sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// The push service answering 410 Gone proves the endpoint dead.
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription for operator %s is expired, deleting", job.sub.OperatorID)
		if err := wp.store.DeletePushSubscription(ctx, job.sub.OperatorID); err != nil {
			log.Printf("failed to delete expired subscription for operator %s: %v", job.sub.OperatorID, err)
		}
	}
}
