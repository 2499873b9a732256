package view

import (
	"context"
	"errors"

	"guestbook/internal/model"
)

var ErrSignedOut = errors.New("sign in to leave a message")

// Caller issues the two remote calls the view depends on.
type Caller interface {
	GetAllMessagesAndNames(ctx context.Context) ([]model.Entry, error)
	PostMessage(ctx context.Context, name, message string) error
}

// View is the guestbook page state: who is looking, what they are typing and
// which entries are on screen.
type View struct {
	caller   Caller
	cache    *Cache
	composer *Composer
	session  *model.Session
	status   model.SessionStatus
}

func New(caller Caller, maxLength int) *View {
	return &View{
		caller:   caller,
		cache:    NewCache(caller.GetAllMessagesAndNames),
		composer: NewComposer(maxLength),
		status:   model.StatusLoading,
	}
}

// SetSession resolves the session status; nil means the visitor is anonymous.
func (v *View) SetSession(s *model.Session) {
	v.session = s
	v.status = model.StatusOf(s)
}

func (v *View) Status() model.SessionStatus { return v.status }

func (v *View) Identity() (model.Identity, bool) {
	if v.session == nil {
		return model.Identity{}, false
	}
	return v.session.User, true
}

func (v *View) Composer() *Composer { return v.composer }

func (v *View) Cache() *Cache { return v.cache }

// Entries returns what is currently displayed and false while the first load is pending.
func (v *View) Entries() ([]model.Entry, bool) {
	return v.cache.Snapshot()
}

func (v *View) Load(ctx context.Context) error {
	return v.cache.Refresh(ctx)
}

// Submit posts the composer's text. Invalid input never reaches the network.
// Any in-flight refresh is cancelled and the current snapshot kept on screen
// until the call settles; the list is then refetched whatever the outcome.
// The new entry only shows up once that refetch lands.
func (v *View) Submit(ctx context.Context) error {
	if v.session == nil {
		return ErrSignedOut
	}
	if err := v.composer.Validate(); err != nil {
		return err
	}
	message := v.composer.Text()

	v.cache.CancelRefresh()
	if prev, ok := v.cache.Snapshot(); ok {
		v.cache.Set(prev)
	}

	err := v.caller.PostMessage(ctx, v.session.User.Name, message)
	v.composer.Clear()

	_ = v.cache.Invalidate(ctx)
	return err
}
