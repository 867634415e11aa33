package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/research-stream/pkg/database"
	"github.com/mikeboe/research-stream/pkg/events"
	"github.com/mikeboe/research-stream/pkg/logging"
	"github.com/mikeboe/research-stream/pkg/research"
	"github.com/mikeboe/research-stream/pkg/session"
)

// Run statuses stored in research_runs.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
)

var (
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrUnknownSource = errors.New("unknown source")
)

// RunStore records runs, their events and their logs.
type RunStore interface {
	LogWriter
	CreateRun(ctx context.Context, id uuid.UUID, query, source string) error
	AppendEvent(ctx context.Context, runID uuid.UUID, seq int, eventType string, payload []byte) error
	FinishRun(ctx context.Context, runID uuid.UUID, status, narrative string) error
	ListRuns(ctx context.Context, limit int) ([]database.Run, error)
	RunEvents(ctx context.Context, runID uuid.UUID) ([]database.StoredEvent, error)
	RunLogs(ctx context.Context, runID uuid.UUID) ([]database.LogEntry, error)
}

type Service struct {
	Searchers     map[string]research.Searcher
	Analyzer      research.Analyzer
	Cfg           research.Config
	DefaultSource string
	// Store is nil when no database is configured.
	Store  RunStore
	Logger *slog.Logger
}

func NewService(searchers map[string]research.Searcher, analyzer research.Analyzer, cfg research.Config, store RunStore) *Service {
	return &Service{
		Searchers:     searchers,
		Analyzer:      analyzer,
		Cfg:           cfg,
		DefaultSource: "arxiv",
		Store:         store,
		Logger:        slog.Default(),
	}
}

type ResearchRequest struct {
	Query  string `json:"query"`
	Source string `json:"source"`
}

// Stream validates req and returns the run's events. Recording, if a store
// is configured, happens as the events are pulled.
func (s *Service) Stream(ctx context.Context, req ResearchRequest) (iter.Seq[events.Event], error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	source := req.Source
	if source == "" {
		source = s.DefaultSource
	}
	searcher, ok := s.Searchers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	runID := uuid.New()
	logger := s.Logger.With("run_id", runID.String(), "source", source)
	store := s.Store
	if store != nil {
		if err := store.CreateRun(ctx, runID, query, source); err != nil {
			logger.Error("Failed to record run", "error", err)
			store = nil
		} else {
			logger = slog.New(logging.Fanout{
				s.Logger.Handler(),
				NewDBLogHandler(store, runID),
			}).With("run_id", runID.String(), "source", source)
		}
	}

	agent := research.NewAgent(searcher, s.Analyzer, s.Cfg)
	agent.Logger = logger

	return func(yield func(events.Event) bool) {
		started := time.Now()
		state := session.New(query)
		status := StatusAborted
		defer func() {
			logger.Info("Research run finished", "status", status, "events", len(state.RawEvents), "duration", time.Since(started))
			if store == nil {
				return
			}
			if err := store.FinishRun(context.WithoutCancel(ctx), runID, status, state.NarrativeText); err != nil {
				logger.Error("Failed to finish run", "error", err)
			}
		}()

		for e := range agent.Research(ctx, query) {
			state = session.Reduce(state, e)
			if store != nil {
				s.record(ctx, store, logger, runID, len(state.RawEvents), e)
			}
			switch e.Kind {
			case events.KindComplete:
				status = StatusCompleted
			case events.KindError:
				status = StatusFailed
			}
			if !yield(e) {
				return
			}
		}
	}, nil
}

func (s *Service) record(ctx context.Context, store RunStore, logger *slog.Logger, runID uuid.UUID, seq int, e events.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err)
		return
	}
	if err := store.AppendEvent(context.WithoutCancel(ctx), runID, seq, string(e.Kind), payload); err != nil {
		logger.Error("Failed to record event", "seq", seq, "error", err)
	}
}

func (s *Service) ListRuns(ctx context.Context) ([]database.Run, error) {
	return s.Store.ListRuns(ctx, 50)
}

func (s *Service) RunEvents(ctx context.Context, id uuid.UUID) ([]database.StoredEvent, error) {
	return s.Store.RunEvents(ctx, id)
}

func (s *Service) RunLogs(ctx context.Context, id uuid.UUID) ([]database.LogEntry, error) {
	return s.Store.RunLogs(ctx, id)
}
