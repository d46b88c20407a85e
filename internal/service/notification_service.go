package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
	"github.com/noah-isme/guru-go-api/internal/observability"
	"github.com/noah-isme/guru-go-api/internal/repository"
)

// A slow SSE consumer gets this many buffered events before drops start.
const streamBufferSize = 16

// NotificationService persists grading events and streams them to signed-in
// users over SSE. When Redis or NATS is configured, events also fan out to
// the other API instances so a client can be connected to any of them.
type NotificationService interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id uint, userID string) (dto.NotificationResponse, error)
	Subscribe(userID string) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo         repository.NotificationRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	sanitizer    *bluemonday.Policy
	hub          *sseHub
	originID     string
}

// fanoutEnvelope is the wire format shared between instances. Origin lets a
// node drop its own events when they come back around.
type fanoutEnvelope struct {
	Origin       string                   `json:"origin"`
	Notification dto.NotificationResponse `json:"notification"`
	EmittedAt    time.Time                `json:"emitted_at"`
}

// NewNotificationService constructs a notification service.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		validator:    validate,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/guru-go-api/internal/service/notification"),
		sanitizer:    bluemonday.StrictPolicy(),
		hub:          newSSEHub(),
		originID:     uuid.NewString(),
	}
}

// normalizeKind collapses unknown event kinds onto the generic fallback so
// the metrics label set and client event switch stay bounded.
func normalizeKind(kind string) string {
	switch kind {
	case models.NotificationTypeGradingCompleted,
		models.NotificationTypeGradingFailed,
		models.NotificationTypeQuizGenerated:
		return kind
	}
	return models.NotificationTypeGeneric
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.runRedisFanout(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.runNATSFanout(ctx)
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if message == "" {
		return dto.NotificationResponse{}, errors.New("notification message empty after sanitization")
	}

	kind := normalizeKind(payload.Type)

	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.String("notification.user_id", payload.UserID),
		attribute.String("notification.type", kind),
	))
	defer span.End()

	model := models.Notification{
		UserID:  payload.UserID,
		Type:    kind,
		Message: message,
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(model)
	s.hub.push(response.UserID, response)
	if err := s.fanout(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to fan notification out to peers")
	}

	observability.NotificationsPublishedTotal().WithLabelValues(kind).Inc()

	return response, nil
}

func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}

	notifications, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint, userID string) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.String("notification.user_id", userID),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID)
	if err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) Subscribe(userID string) (<-chan dto.NotificationResponse, func()) {
	stream := s.hub.attach(userID)
	observability.SSEClientsActive().Inc()

	cleanup := func() {
		s.hub.detach(userID, stream)
		observability.SSEClientsActive().Dec()
	}

	return stream, cleanup
}

func (s *notificationService) fanout(ctx context.Context, notification dto.NotificationResponse) error {
	payload, err := json.Marshal(fanoutEnvelope{
		Origin:       s.originID,
		Notification: notification,
		EmittedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) runRedisFanout(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.forwardPeerEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) runNATSFanout(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "guru-notifications", func(msg *nats.Msg) {
		s.forwardPeerEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

// forwardPeerEvent replays an event published by another instance to the SSE
// streams attached here.
func (s *notificationService) forwardPeerEvent(payload []byte) {
	var envelope fanoutEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification fanout payload")
		return
	}

	if envelope.Origin == s.originID {
		return
	}

	notification := envelope.Notification
	notification.Type = normalizeKind(notification.Type)

	observability.NotificationsPublishedTotal().WithLabelValues(notification.Type).Inc()
	s.hub.push(notification.UserID, notification)
}

// sseHub tracks the open event streams per user.
type sseHub struct {
	mu      sync.RWMutex
	streams map[string]map[chan dto.NotificationResponse]struct{}
}

func newSSEHub() *sseHub {
	return &sseHub{streams: make(map[string]map[chan dto.NotificationResponse]struct{})}
}

func (h *sseHub) attach(userID string) chan dto.NotificationResponse {
	stream := make(chan dto.NotificationResponse, streamBufferSize)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.streams[userID]; !exists {
		h.streams[userID] = make(map[chan dto.NotificationResponse]struct{})
	}
	h.streams[userID][stream] = struct{}{}

	return stream
}

func (h *sseHub) detach(userID string, stream chan dto.NotificationResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if streams, ok := h.streams[userID]; ok {
		delete(streams, stream)
		close(stream)
		if len(streams) == 0 {
			delete(h.streams, userID)
		}
	}
}

// push delivers to every stream of the user, dropping when a buffer is full
// rather than blocking the publisher.
func (h *sseHub) push(userID string, notification dto.NotificationResponse) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for stream := range h.streams[userID] {
		select {
		case stream <- notification:
		default:
		}
	}
}
