// Package middleware holds the request pipeline stages and the builder that
// composes them in the order settings declare.
package middleware

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/form"
	"github.com/yanizio/ecomm/internal/session"
)

// Deps are the long-lived collaborators stages need.
type Deps struct {
	Config   *config.Config
	Sessions *session.Codec
	CSRF     *form.CSRF
	Log      *zap.SugaredLogger
}

// NewDeps derives signing helpers from cfg's secret key.
func NewDeps(cfg *config.Config, log *zap.SugaredLogger) Deps {
	return Deps{
		Config:   cfg,
		Sessions: session.NewCodec(cfg.Security.SecretKey, cfg.Auth.SessionCookieAge),
		CSRF:     form.NewCSRF(cfg.Security.SecretKey, cfg.Auth.CSRFTokenMaxAge),
		Log:      log,
	}
}

// Build validates the configured pipeline and returns one wrapper that
// applies every stage, outermost first.
func Build(d Deps) (func(http.Handler) http.Handler, error) {
	stages, err := ParseStages(d.Config.Middleware.List())
	if err != nil {
		return nil, err
	}
	if err := Validate(stages); err != nil {
		return nil, err
	}

	wrappers := make([]func(http.Handler) http.Handler, 0, len(stages))
	for _, s := range stages {
		w, err := d.stage(s)
		if err != nil {
			return nil, err
		}
		wrappers = append(wrappers, w)
	}

	return func(h http.Handler) http.Handler {
		for i := len(wrappers) - 1; i >= 0; i-- {
			h = wrappers[i](h)
		}
		return h
	}, nil
}

func (d Deps) stage(s Stage) (func(http.Handler) http.Handler, error) {
	cfg := d.Config
	switch s {
	case StageSecurity:
		return Security(cfg.Security.Debug, d.Log), nil
	case StageStatic:
		return Static(cfg.Static, cfg.Media, cfg.Security.Debug), nil
	case StageSession:
		return Session(d.Sessions, SessionCookie{
			Name: cfg.Auth.SessionCookieName,
			Age:  cfg.Auth.SessionCookieAge,
		}, d.Log), nil
	case StageCommon:
		return Common(cfg.Hosts, d.Log), nil
	case StageCSRF:
		return CSRF(d.CSRF, d.Log), nil
	case StageAuth:
		return Auth, nil
	case StageMessages:
		return Messages, nil
	case StageClickjacking:
		return Clickjacking, nil
	case StageAccount:
		return Account(cfg.Auth, cfg.Static.URL, cfg.Media.URL), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStage, s)
}
