package mocks

import (
	"context"

	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify mock of tracking.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetTrackingData(ctx context.Context, req tracking.Request) (*models.TrackingData, error) {
	args := m.Called(ctx, req)
	var d *models.TrackingData
	if v := args.Get(0); v != nil {
		d = v.(*models.TrackingData)
	}
	return d, args.Error(1)
}

// MockKeyValueStore is a testify mock of orders.KeyValueStore.
type MockKeyValueStore struct {
	mock.Mock
}

func (m *MockKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKeyValueStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
