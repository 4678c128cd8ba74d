package mailer

import (
	"context"

	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
)

// QueueDelivery hands messages to the email worker via RabbitMQ. A failed
// publish is the caller-visible delivery failure; actual SMTP-level errors
// are handled by the worker's nack/requeue loop.
type QueueDelivery struct {
	Pub *helpers.RabbitPublisher
}

func NewQueueDelivery(pub *helpers.RabbitPublisher) *QueueDelivery {
	return &QueueDelivery{Pub: pub}
}

func (q *QueueDelivery) Send(ctx context.Context, to, subject, html string) error {
	return q.Pub.PublishJSON(ctx, EmailJob{To: to, Subject: subject, HTML: html})
}
