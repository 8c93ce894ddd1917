package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/api/web"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/core/claims"
	"github.com/polyakovam/bookstore/core/user"
	"github.com/polyakovam/bookstore/database"
	"github.com/polyakovam/bookstore/random"
	"github.com/polyakovam/bookstore/validate"
	"golang.org/x/oauth2"
)

const sessionOauthState = "oauthState"

type Provider struct {
	cfg      oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

// MakeProviders discovers each configured OIDC issuer. Providers without
// credentials are skipped so local setups work without OAuth.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider)
	for _, c := range cfgs {
		if c.Client == "" || c.Secret == "" {
			continue
		}

		p, err := oidc.NewProvider(ctx, c.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering oidc provider[%s]: %w", c.Name, err)
		}

		provs[c.Name] = Provider{
			cfg: oauth2.Config{
				ClientID:     c.Client,
				ClientSecret: c.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  c.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: c.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(sm *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider[%s]", web.Param(r, "provider")))
		}

		state, err := random.String(32)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}
		sm.Put(ctx, sessionOauthState, state)

		http.Redirect(w, r, prov.cfg.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, sm *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider[%s]", web.Param(r, "provider")))
		}

		state := sm.PopString(ctx, sessionOauthState)
		if state == "" || state != web.Query(r, "state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"), "oauth state mismatch")
		}

		token, err := prov.cfg.Exchange(ctx, web.Query(r, "code"))
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			return weberr.NotAuthorized(errors.New("oauth token without id_token"))
		}

		idToken, err := prov.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("verifying id token: %w", err))
		}

		var profile struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&profile); err != nil {
			return fmt.Errorf("decoding id token claims: %w", err)
		}

		usr, err := user.FetchByEmail(ctx, db, profile.Email)
		if errors.Is(err, database.ErrNotFound) {
			now := time.Now().UTC()
			usr = user.User{
				ID:        validate.GenerateID(),
				Username:  profile.Name,
				Email:     profile.Email,
				Role:      claims.RoleUser,
				CreatedAt: now,
				UpdatedAt: now,
			}
			err = user.Create(ctx, db, usr)
		}
		if err != nil {
			return err
		}

		if err := login(ctx, sm, usr); err != nil {
			return err
		}

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
		return nil
	}
}
