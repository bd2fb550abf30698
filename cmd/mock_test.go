//go:build !integration

package main

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, meta model.RunMeta) (*model.Run, error) {
	args := m.Called(ctx, meta)
	run, _ := args.Get(0).(*model.Run)
	return run, args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, report *model.Report, costUSD float64) error {
	return m.Called(ctx, runID, report, costUSD).Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, msg string) error {
	return m.Called(ctx, runID, msg).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	run, _ := args.Get(0).(*model.Run)
	return run, args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	runs, _ := args.Get(0).([]model.Run)
	return runs, args.Error(1)
}

func (m *mockStore) GetReport(ctx context.Context, runID string) (*model.Report, error) {
	args := m.Called(ctx, runID)
	report, _ := args.Get(0).(*model.Report)
	return report, args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
