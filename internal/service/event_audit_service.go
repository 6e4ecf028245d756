package service

import (
	"context"

	"video-intel-be/internal/pkg/logger"
	"video-intel-be/pkg/events"
	pktNats "video-intel-be/pkg/nats"
)

// IEventAuditService drains the durable event stream into the audit log.
// The websocket hub handles live progress; this consumer is the persistent
// record of every ingestion lifecycle event, surviving restarts via the
// durable JetStream consumer.
type IEventAuditService interface {
	Start() error
}

type eventAuditService struct {
	subscriber *pktNats.Subscriber
	log        logger.ILogger
}

func NewEventAuditService(subscriber *pktNats.Subscriber, log logger.ILogger) IEventAuditService {
	return &eventAuditService{
		subscriber: subscriber,
		log:        log,
	}
}

func (s *eventAuditService) Start() error {
	if s.subscriber == nil {
		// NATS is optional infrastructure; without it there is no stream to drain.
		return nil
	}

	return s.subscriber.Subscribe("events.>", "video-audit", func(ctx context.Context, event events.Event) error {
		s.log.Info("audit", "video lifecycle event", map[string]interface{}{
			"subject": event.EventType(),
			"payload": event.Payload(),
		})
		return nil
	})
}
