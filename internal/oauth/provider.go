package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"guestbook/internal/model"
)

var (
	ErrBadState       = errors.New("oauth state mismatch")
	ErrMissingProfile = errors.New("provider returned no usable profile")
)

type Config struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// Provider drives the third-party sign-in for one named provider.
type Provider struct {
	name        string
	cfg         *oauth2.Config
	userInfoURL string
	stateKey    []byte
}

func NewProvider(c Config, stateSecret string) *Provider {
	return &Provider{
		name: c.Name,
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       c.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  c.AuthURL,
				TokenURL: c.TokenURL,
			},
		},
		userInfoURL: c.UserInfoURL,
		stateKey:    []byte(stateSecret),
	}
}

func (p *Provider) Name() string { return p.name }

// NewState returns a random state value signed with the state key.
func (p *Provider) NewState() string {
	raw := uuid.NewString()
	return raw + "." + p.sign(raw)
}

func (p *Provider) VerifyState(got string) bool {
	raw, sig, ok := strings.Cut(got, ".")
	if !ok || raw == "" {
		return false
	}
	return hmac.Equal([]byte(p.sign(raw)), []byte(sig))
}

func (p *Provider) sign(raw string) string {
	mac := hmac.New(sha256.New, p.stateKey)
	mac.Write([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (p *Provider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// profile covers the Discord user object and the usual OIDC userinfo fields.
type profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
}

func (pr profile) identity() model.Identity {
	id := model.Identity{Image: pr.Picture}
	switch {
	case pr.GlobalName != "":
		id.Name = pr.GlobalName
	case pr.Username != "":
		id.Name = pr.Username
	default:
		id.Name = pr.Name
	}
	if id.Image == "" && pr.ID != "" && pr.Avatar != "" {
		id.Image = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", pr.ID, pr.Avatar)
	}
	return id
}

// Exchange trades the authorization code for a token and fetches the visitor's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (model.Identity, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return model.Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return model.Identity{}, err
	}
	resp, err := p.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return model.Identity{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Identity{}, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var pr profile
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return model.Identity{}, fmt.Errorf("decode profile: %w", err)
	}
	id := pr.identity()
	if id.Name == "" {
		return model.Identity{}, ErrMissingProfile
	}
	return id, nil
}
