package http_test

import (
	"context"

	"roster-console/internal/session/domain/model"

	"github.com/stretchr/testify/mock"
)

// mockSessionStore is a shared mock for usecase.SessionStoreInterface
type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Login(ctx context.Context, identifier, secret string, remember bool) (bool, error) {
	args := m.Called(ctx, identifier, secret, remember)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionStore) Restore(ctx context.Context) model.State {
	return m.Called(ctx).Get(0).(model.State)
}

func (m *mockSessionStore) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSessionStore) State() model.State {
	return m.Called().Get(0).(model.State)
}

func (m *mockSessionStore) Token(ctx context.Context) (string, bool) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1)
}

func (m *mockSessionStore) Authorize(ctx context.Context, token string) (*model.Identity, error) {
	args := m.Called(ctx, token)
	if id := args.Get(0); id != nil {
		return id.(*model.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}
