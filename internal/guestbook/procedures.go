package guestbook

import (
	"context"

	"guestbook/internal/model"
	"guestbook/internal/rpc"
)

const (
	ProcGetAllMessagesAndNames = "guestbook.getAllMessagesAndNames"
	ProcPostMessage            = "guestbook.postMessage"
)

// Register exposes the service on r. The list query is public; every procedure
// registered after it sits behind the session gate.
func (s *Service) Register(r *rpc.Router) {
	r.Query(ProcGetAllMessagesAndNames, func(ctx context.Context, _ *rpc.Call) (any, error) {
		return s.List(ctx), nil
	})

	r.Use(rpc.RequireSession)

	r.Mutation(ProcPostMessage, func(ctx context.Context, call *rpc.Call) (any, error) {
		var in PostMessageInput
		if err := call.Bind(&in); err != nil {
			return nil, err
		}
		return nil, s.Create(ctx, in)
	})
}

// LocalCaller drives the service in process for views rendered by this server.
type LocalCaller struct {
	svc *Service
}

func NewLocalCaller(svc *Service) *LocalCaller {
	return &LocalCaller{svc: svc}
}

func (c *LocalCaller) GetAllMessagesAndNames(ctx context.Context) ([]model.Entry, error) {
	return c.svc.List(ctx), nil
}

func (c *LocalCaller) PostMessage(ctx context.Context, name, message string) error {
	return c.svc.Create(ctx, PostMessageInput{Name: name, Message: message})
}
