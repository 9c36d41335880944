package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/inesruizblach/RateFlow/internal/models"
)

type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) Fetch(ctx context.Context, base string) (*models.RateSnapshot, error) {
	args := m.Called(ctx, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RateSnapshot), args.Error(1)
}

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

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) SendRunCompletedEvent(ctx context.Context, event models.RunCompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

// countingSource always fails and counts calls; used to watch the loop
// survive consecutive failed runs.
type countingSource struct {
	calls atomic.Int64
	err   error
}

func (s *countingSource) Fetch(ctx context.Context, base string) (*models.RateSnapshot, error) {
	s.calls.Add(1)
	return nil, s.err
}

// blockingSource parks the first Fetch until released; used to hold the
// Idle/Running gate open from a test. Later calls return immediately.
type blockingSource struct {
	entered   chan struct{}
	release   chan struct{}
	snap      *models.RateSnapshot
	enterOnce sync.Once
}

func (s *blockingSource) Fetch(ctx context.Context, base string) (*models.RateSnapshot, error) {
	s.enterOnce.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.snap, nil
}

// countingStorage counts appends and tracks how many run concurrently.
type countingStorage struct {
	appends   atomic.Int64
	active    atomic.Int64
	maxActive atomic.Int64
}

func (s *countingStorage) Append(ctx context.Context, records []models.RateRecord) (int, error) {
	active := s.active.Add(1)
	for {
		max := s.maxActive.Load()
		if active <= max || s.maxActive.CompareAndSwap(max, active) {
			break
		}
	}
	defer s.active.Add(-1)

	s.appends.Add(1)
	return len(records), nil
}

func (s *countingStorage) ReadAll(ctx context.Context) ([]models.RateRecord, error) {
	return []models.RateRecord{}, nil
}

func (s *countingStorage) LatestSnapshot(ctx context.Context, base, date string) ([]models.RateRecord, error) {
	return []models.RateRecord{}, nil
}

func (s *countingStorage) Close() {}
