package service

import (
	"context"
	"time"

	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/logger"
)

// Log sources readable through the admin API.
const (
	LogSourceApp     = "app"
	LogSourceWebhook = "webhook"
)

type IAdminLogService interface {
	GetLogs(ctx context.Context, source, level string, page, limit int) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, source, id string) (*dto.LogDetailResponse, error)
}

type adminLogService struct {
	sources map[string]logger.ILogger
}

func NewAdminLogService(appLogger, webhookLogger logger.ILogger) IAdminLogService {
	return &adminLogService{
		sources: map[string]logger.ILogger{
			LogSourceApp:     appLogger,
			LogSourceWebhook: webhookLogger,
		},
	}
}

func (s *adminLogService) source(name string) (logger.ILogger, error) {
	if name == "" {
		name = LogSourceApp
	}
	l, ok := s.sources[name]
	if !ok || l == nil {
		return nil, apperror.Validation("unknown log source " + name)
	}
	return l, nil
}

func (s *adminLogService) GetLogs(ctx context.Context, source, level string, page, limit int) ([]*dto.LogListResponse, error) {
	l, err := s.source(source)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}

	entries, err := l.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLogListResponse(e))
	}
	return out, nil
}

// GetLogDetail scans the whole file; log ids are content hashes.
func (s *adminLogService) GetLogDetail(ctx context.Context, source, id string) (*dto.LogDetailResponse, error) {
	l, err := s.source(source)
	if err != nil {
		return nil, err
	}

	entries, err := l.GetLogs("", 1<<30, 0)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Id == id {
			return &dto.LogDetailResponse{
				LogListResponse: *toLogListResponse(e),
				Details:         e.Details,
			}, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func toLogListResponse(e logger.LogEntry) *dto.LogListResponse {
	createdAt, _ := time.Parse("2006-01-02T15:04:05.000Z0700", e.Timestamp)
	return &dto.LogListResponse{
		Id:        e.Id,
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		CreatedAt: createdAt,
	}
}
