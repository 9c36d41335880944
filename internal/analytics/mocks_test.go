package analytics

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/inesruizblach/RateFlow/internal/models"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Append(ctx context.Context, records []models.RateRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) ReadAll(ctx context.Context) ([]models.RateRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RateRecord), args.Error(1)
}

func (m *MockStorage) LatestSnapshot(ctx context.Context, base, date string) ([]models.RateRecord, error) {
	args := m.Called(ctx, base, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RateRecord), args.Error(1)
}

func (m *MockStorage) Close() {
	m.Called()
}
