package web

import (
	_ "embed"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"guestbook/internal/auth"
	"guestbook/internal/guestbook"
	"guestbook/internal/model"
	"guestbook/internal/view"
)

//go:embed page.html
var pageHTML string

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"timestamp": view.FormatTimestamp,
}).Parse(pageHTML))

// Page serves the guestbook HTML page on top of an in-process view.
type Page struct {
	svc       *guestbook.Service
	provider  string
	maxLength int
	logger    *zap.Logger
}

func NewPage(svc *guestbook.Service, provider string, maxLength int, logger *zap.Logger) *Page {
	return &Page{svc: svc, provider: provider, maxLength: maxLength, logger: logger}
}

type pageData struct {
	Status    model.SessionStatus
	User      model.Identity
	SignedIn  bool
	Provider  string
	Text      string
	Max       int
	Remaining int
	Error     string
	Entries   []model.Entry
	Ready     bool
}

func (p *Page) newView(r *http.Request) *view.View {
	v := view.New(guestbook.NewLocalCaller(p.svc), p.maxLength)
	v.SetSession(auth.SessionFromContext(r.Context()))
	return v
}

// Show handles GET /.
func (p *Page) Show(w http.ResponseWriter, r *http.Request) {
	v := p.newView(r)
	if err := v.Load(r.Context()); err != nil {
		p.logger.Warn("failed to load entries", zap.Error(err))
	}
	p.render(w, http.StatusOK, v)
}

// Compose handles POST /compose. Rejected input re-renders the page with the
// error next to the composer; anything else redirects back to the page.
func (p *Page) Compose(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	v := p.newView(r)
	v.Composer().SetText(r.PostFormValue("message"))

	err := v.Submit(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, view.ErrEmptyMessage), errors.Is(err, view.ErrMessageTooLong):
		if err := v.Load(r.Context()); err != nil {
			p.logger.Warn("failed to load entries", zap.Error(err))
		}
		p.render(w, http.StatusUnprocessableEntity, v)
		return
	case errors.Is(err, view.ErrSignedOut):
		http.Redirect(w, r, "/auth/signin/"+p.provider, http.StatusSeeOther)
		return
	default:
		p.logger.Warn("compose failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (p *Page) render(w http.ResponseWriter, status int, v *view.View) {
	c := v.Composer()
	d := pageData{
		Status:    v.Status(),
		Provider:  p.provider,
		Text:      c.Text(),
		Max:       c.Max(),
		Remaining: c.Remaining(),
	}
	d.User, d.SignedIn = v.Identity()
	d.Entries, d.Ready = v.Entries()
	if err := c.Err(); err != nil {
		d.Error = err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, d); err != nil {
		p.logger.Error("failed to render page", zap.Error(err))
	}
}
