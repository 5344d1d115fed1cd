package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/form"
	"github.com/yanizio/ecomm/internal/metrics"
	"github.com/yanizio/ecomm/internal/passwords"
	"github.com/yanizio/ecomm/internal/requestinfo"
	"github.com/yanizio/ecomm/internal/templates"
)

// loadConfig runs the settings loader and counts the attempt.
func loadConfig(baseDir string) (*config.Config, error) {
	cfg, err := config.Load(config.Options{BaseDir: baseDir})
	metrics.ObserveConfigLoad(err)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return cfg, nil
}

// components are the pieces both commands build from settings.
type components struct {
	Requests  *requestinfo.Resolver
	Forms     *form.Renderer
	Templates *templates.Engine
	Passwords []passwords.Validator
}

func buildComponents(cfg *config.Config, log *zap.SugaredLogger) (*components, error) {
	res, err := requestinfo.NewResolver(cfg.GeoIP.Path)
	if err != nil {
		return nil, err
	}
	forms, err := form.NewRenderer(cfg.Forms.TemplatePack, cfg.Forms.AllowedTemplatePacks)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("crispy forms: %w", err)
	}
	tpl, err := templates.New(cfg, templates.Options{Requests: res, Forms: forms, Log: log})
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("templates: %w", err)
	}
	pw, err := passwords.FromConfig(cfg.Passwords)
	if err != nil {
		res.Close()
		return nil, err
	}
	return &components{Requests: res, Forms: forms, Templates: tpl, Passwords: pw}, nil
}

func (c *components) Close() error { return c.Requests.Close() }
