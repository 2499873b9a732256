package guestbook

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"guestbook/internal/auth"
	"guestbook/internal/messaging"
	"guestbook/internal/metrics"
	"guestbook/internal/model"
	"guestbook/internal/rpc"
)

// WritePolicy decides what a caller sees when the store rejects a new entry.
type WritePolicy string

const (
	// PolicyLogOnly logs the failure and reports success to the caller.
	PolicyLogOnly WritePolicy = "log-only"
	// PolicySurfaceError logs the failure and returns ErrStoreUnavailable.
	PolicySurfaceError WritePolicy = "surface-error"
)

func ParseWritePolicy(s string) (WritePolicy, error) {
	switch p := WritePolicy(s); p {
	case PolicyLogOnly, PolicySurfaceError:
		return p, nil
	case "":
		return PolicyLogOnly, nil
	default:
		return "", fmt.Errorf("unknown write failure policy %q", s)
	}
}

var (
	ErrUnauthorized     = rpc.ErrUnauthorized
	ErrInvalidInput     = rpc.NewError(rpc.CodeBadRequest, "name and message are required", nil)
	ErrStoreUnavailable = rpc.NewError(rpc.CodeInternal, "entry could not be stored", nil)
)

// Store is the persistence the service needs.
type Store interface {
	InsertEntry(ctx context.Context, name, message string) (model.Entry, error)
	ListEntries(ctx context.Context) ([]model.Entry, error)
}

type PostMessageInput struct {
	Name    string `json:"name" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type Options struct {
	WritePolicy WritePolicy
}

type Service struct {
	store    Store
	events   messaging.Publisher
	logger   *zap.Logger
	policy   WritePolicy
	validate *validator.Validate
}

func NewService(store Store, events messaging.Publisher, logger *zap.Logger, opts Options) *Service {
	if events == nil {
		events = messaging.NewNoop()
	}
	if opts.WritePolicy == "" {
		opts.WritePolicy = PolicyLogOnly
	}
	return &Service{
		store:    store,
		events:   events,
		logger:   logger,
		policy:   opts.WritePolicy,
		validate: validator.New(),
	}
}

// List returns every entry newest first. A store failure is logged and yields
// an empty list; the read path never fails.
func (s *Service) List(ctx context.Context) []model.Entry {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("list").Inc()
		s.logger.Error("failed to list guestbook entries", zap.Error(err))
		return []model.Entry{}
	}
	if entries == nil {
		return []model.Entry{}
	}
	return entries
}

// Create stores one entry for the signed-in caller. The stored name is the
// session identity's name; the input name is only used when the identity has none.
func (s *Service) Create(ctx context.Context, in PostMessageInput) error {
	session := auth.SessionFromContext(ctx)
	if session == nil {
		return ErrUnauthorized
	}
	if err := s.validate.Struct(in); err != nil {
		return rpc.NewError(rpc.CodeBadRequest, ErrInvalidInput.Message, err)
	}

	name := session.User.Name
	if name == "" {
		name = in.Name
	}

	entry, err := s.store.InsertEntry(ctx, name, in.Message)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("insert").Inc()
		s.logger.Error("failed to store guestbook entry",
			zap.String("name", name),
			zap.String("policy", string(s.policy)),
			zap.Error(err),
		)
		if s.policy == PolicySurfaceError {
			return rpc.NewError(rpc.CodeInternal, ErrStoreUnavailable.Message, err)
		}
		return nil
	}

	metrics.EntriesCreated.Inc()
	s.logger.Info("guestbook entry stored", zap.String("name", entry.Name), zap.Stringer("id", entry.ID))

	evt := messaging.EntryCreated{
		ID:        entry.ID,
		Name:      entry.Name,
		Message:   entry.Message,
		CreatedAt: entry.CreatedAt,
	}
	if err := s.events.Publish(ctx, messaging.RoutingEntryCreated, evt); err != nil {
		s.logger.Warn("failed to publish entry event", zap.Stringer("id", entry.ID), zap.Error(err))
	}
	return nil
}
