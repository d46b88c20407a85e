package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guru-go-api/internal/dto"
	"github.com/noah-isme/guru-go-api/internal/models"
)

func newNotificationService(t *testing.T) NotificationService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewNotificationService(newMemoryNotificationRepo(), nil, "", nil, validate, testLogger())
}

func TestNotificationServicePublishSanitizesMessage(t *testing.T) {
	svc := newNotificationService(t)

	response, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "student:1",
		Type:    "grading_completed",
		Message: "<script>alert('x')</script>Submission 1 graded.",
	})
	require.NoError(t, err)
	require.Equal(t, "Submission 1 graded.", response.Message)
}

func TestNotificationServicePublishRejectsEmptyAfterSanitization(t *testing.T) {
	svc := newNotificationService(t)

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "student:1",
		Type:    "grading_completed",
		Message: "<img src=x onerror=alert(1)>",
	})
	require.Error(t, err)
}

func TestNotificationServiceSubscribeReceivesBroadcast(t *testing.T) {
	svc := newNotificationService(t)

	channel, cleanup := svc.Subscribe("student:7")
	defer cleanup()

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "student:7",
		Type:    "grading_completed",
		Message: "Submission 9 graded.",
	})
	require.NoError(t, err)

	select {
	case received := <-channel:
		require.Equal(t, "Submission 9 graded.", received.Message)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast notification")
	}
}

func TestNotificationServicePublishNormalizesUnknownKind(t *testing.T) {
	svc := newNotificationService(t)

	response, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "student:1",
		Type:    "party_invite",
		Message: "You are invited.",
	})
	require.NoError(t, err)
	require.Equal(t, models.NotificationTypeGeneric, response.Type)
}

func TestNotificationServiceListRequiresUser(t *testing.T) {
	svc := newNotificationService(t)

	_, err := svc.List(context.Background(), "  ", 10, 0)
	require.Error(t, err)
}
