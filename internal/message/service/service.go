// Package service dispatches protocol messages to the record store and reconciliation.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	pullrequestService "github.com/festy23/prtracker/internal/pullrequest/service"
	"github.com/festy23/prtracker/internal/reconcile"
)

// Reconciler normalizes and purges the storage namespace.
type Reconciler interface {
	Run(ctx context.Context) (reconcile.Report, error)
	PurgeUnknown(ctx context.Context) (int, error)
}

// Service defines the interface for handling protocol messages.
type Service interface {
	// Handle answers req. It never returns nil.
	Handle(ctx context.Context, req *messageModel.Request) *messageModel.Response
}

type service struct {
	prs        pullrequestService.Service
	reconciler Reconciler
	logger     *zap.SugaredLogger
}

// New creates a new message service instance.
func New(prs pullrequestService.Service, reconciler Reconciler, logger *zap.SugaredLogger) Service {
	return &service{
		prs:        prs,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Handle answers req.
func (s *service) Handle(ctx context.Context, req *messageModel.Request) *messageModel.Response {
	s.logger.Debugw("message received", "action", req.Action, "prId", req.PrID)

	switch req.Action {
	case messageModel.ActionPing:
		return &messageModel.Response{Success: true, Message: messageModel.MessagePong}
	case messageModel.ActionGetPRStats:
		return s.getPRStats(ctx, req)
	case messageModel.ActionUpdatePRStats:
		return s.updatePRStats(ctx, req)
	case messageModel.ActionSavePRInfo:
		return s.savePRInfo(ctx, req)
	case messageModel.ActionGetAllPRStats:
		return s.getAllPRStats(ctx)
	case messageModel.ActionGetCachedPRStats:
		return s.getCachedPRStats(ctx)
	case messageModel.ActionRemovePR:
		return s.removePR(ctx, req)
	case messageModel.ActionCleanupUnknown:
		return s.cleanupUnknown(ctx)
	case messageModel.ActionReconcile:
		return s.reconcile(ctx)
	case messageModel.ActionOpenPopup:
		// Nothing to open on behalf of the caller; listing clients render the popup themselves.
		return &messageModel.Response{Success: true}
	default:
		s.logger.Debugw("unknown action", "action", req.Action)
		return messageModel.Failure(messageModel.ErrorUnknownAction)
	}
}

func (s *service) getPRStats(ctx context.Context, req *messageModel.Request) *messageModel.Response {
	empty := &messageModel.Response{
		Success: true,
		Stats:   &pullrequestModel.Stats{},
		Info:    &pullrequestModel.Record{},
	}

	key, err := prkey.Validate(req.PrID)
	if err != nil {
		return empty
	}

	stats, err := s.prs.GetStats(ctx, key)
	if err != nil {
		s.logger.Errorw("failed to get stats", "key", key, "error", err)
		return empty
	}
	record, err := s.prs.GetRecord(ctx, key)
	if err != nil {
		s.logger.Errorw("failed to get record", "key", key, "error", err)
		return empty
	}
	return &messageModel.Response{Success: true, Stats: stats, Info: record}
}

func (s *service) updatePRStats(ctx context.Context, req *messageModel.Request) *messageModel.Response {
	key, err := prkey.Validate(req.PrID)
	if err != nil {
		return messageModel.Failure(messageModel.ErrorInvalidPRID)
	}

	stats, err := s.prs.UpsertVisit(ctx, key, pullrequestModel.VisitInput{
		IsApproval:          req.IsApproval,
		ShouldIncrementView: req.ShouldIncrementView,
		InternalID:          req.PrInternalID,
	})
	if errors.Is(err, pullrequestModel.ErrIgnoredUnknown) {
		return &messageModel.Response{Success: false, Ignored: true}
	}
	if err != nil {
		s.logger.Errorw("failed to update stats", "key", key, "error", err)
		return messageModel.Failure(messageModel.ErrorStorageFailure)
	}
	return &messageModel.Response{Success: true, Stats: stats}
}

func (s *service) savePRInfo(ctx context.Context, req *messageModel.Request) *messageModel.Response {
	key, err := prkey.Validate(req.PrID)
	if err != nil {
		return messageModel.Failure(messageModel.ErrorInvalidPRID)
	}
	if req.Info == nil {
		return messageModel.Failure(messageModel.ErrorInvalidPRInfo)
	}

	err = s.prs.SaveRecord(ctx, key, req.Info)
	if errors.Is(err, pullrequestModel.ErrUnknownProject) {
		return &messageModel.Response{Success: false, Ignored: true, Error: messageModel.ErrorUnknownProject}
	}
	if err != nil {
		s.logger.Errorw("failed to save record", "key", key, "error", err)
		return messageModel.Failure(messageModel.ErrorStorageFailure)
	}
	return &messageModel.Response{Success: true}
}

func (s *service) getAllPRStats(ctx context.Context) *messageModel.Response {
	views, err := s.prs.ListAll(ctx)
	if err != nil {
		s.logger.Errorw("failed to list pull requests", "error", err)
		return messageModel.Failure(messageModel.ErrorStorageFailure)
	}
	return &messageModel.Response{Success: true, PRs: views}
}

func (s *service) getCachedPRStats(ctx context.Context) *messageModel.Response {
	cache, err := s.prs.Cached(ctx)
	if err != nil {
		s.logger.Errorw("failed to read cache", "error", err)
		return messageModel.Failure(messageModel.ErrorStorageFailure)
	}
	return &messageModel.Response{Success: true, Cache: cache}
}

func (s *service) removePR(ctx context.Context, req *messageModel.Request) *messageModel.Response {
	key, err := prkey.Validate(req.PrID)
	if err != nil {
		return messageModel.Failure(messageModel.ErrorInvalidPRID)
	}

	if err := s.prs.Remove(ctx, key); err != nil {
		s.logger.Errorw("failed to remove pull request", "key", key, "error", err)
		return messageModel.Failure(messageModel.ErrorStorageFailure)
	}
	return &messageModel.Response{Success: true}
}

func (s *service) cleanupUnknown(ctx context.Context) *messageModel.Response {
	if _, err := s.reconciler.PurgeUnknown(ctx); err != nil {
		s.logger.Errorw("failed to purge unknown records", "error", err)
	}
	return &messageModel.Response{Success: true}
}

func (s *service) reconcile(ctx context.Context) *messageModel.Response {
	report, err := s.reconciler.Run(ctx)
	if err != nil {
		s.logger.Warnw("reconciliation finished with errors", "error", err)
		return &messageModel.Response{Success: false, Error: messageModel.ErrorReconcileFailed, Report: &report}
	}
	return &messageModel.Response{Success: true, Report: &report}
}
