package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/famquest/family-server-go/internal/errors"
	"github.com/famquest/family-server-go/internal/model"
	"github.com/famquest/family-server-go/internal/repository"
)

func newNotificationFixture() (*NotificationService, *mockNotificationRepo) {
	notifications := new(mockNotificationRepo)
	svc := &NotificationService{repos: &repository.Repos{Notifications: notifications}}
	return svc, notifications
}

func TestMarkReadScopedToFamily(t *testing.T) {
	svc, notifications := newNotificationFixture()

	// A broadcast notification from another family must not be reachable,
	// even though its to_user_id is NULL.
	notifications.On("MarkRead", mock.Anything, "n1", "fam-1", "user-1").Return(false, nil)

	err := svc.MarkRead(context.Background(), parentPrincipal(), "n1")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	notifications.AssertExpectations(t)
}

func TestMarkReadOwnNotification(t *testing.T) {
	svc, notifications := newNotificationFixture()

	notifications.On("MarkRead", mock.Anything, "n1", "fam-1", "user-1").Return(true, nil)

	err := svc.MarkRead(context.Background(), parentPrincipal(), "n1")
	require.NoError(t, err)
}

func TestListNotificationsRequiresFamily(t *testing.T) {
	svc, _ := newNotificationFixture()

	_, err := svc.ListForUser(context.Background(), &model.Principal{Role: model.RoleParent, UserID: "user-1"}, 50)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}
