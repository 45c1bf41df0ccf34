// Package app wires the interaction handlers onto a page.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/star/satrack/internal/account"
	"github.com/star/satrack/internal/autocomplete"
	"github.com/star/satrack/internal/dismiss"
	"github.com/star/satrack/internal/page"
	"github.com/star/satrack/internal/trackerapi"
	"github.com/star/satrack/internal/tracking"
)

// API is everything the page handlers need from the server.
type API interface {
	autocomplete.Searcher
	tracking.Mutator
	account.Authenticator
}

// Options select the page variant.
type Options struct {
	Layout         string
	SubmitOnSelect bool
}

// Session is a mounted page with its handlers. Components whose elements
// are absent from the page are nil.
type Session struct {
	Page            *page.Page
	SatelliteSearch *autocomplete.Autocomplete
	CountrySearch   *autocomplete.Autocomplete
	Satellites      *tracking.List
	Countries       *tracking.List
	Account         *account.Access
}

// Mount binds every handler whose elements exist on p. Account pages get the
// search boxes, lists and outside-click dismissal; login pages get the
// account buttons.
func Mount(p *page.Page, api API, host page.Host, opts Options, logger *slog.Logger) (*Session, error) {
	s := &Session{Page: p}
	var widgets []dismiss.Widget

	for _, cfg := range []autocomplete.Config{autocomplete.SatelliteConfig(), autocomplete.CountryConfig()} {
		if !p.Exists(cfg.InputID) || !p.Exists(cfg.DropdownID) {
			continue
		}
		cfg.SubmitOnSelect = opts.SubmitOnSelect
		ac, err := autocomplete.New(p, api, host, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := ac.Bind(); err != nil {
			return nil, err
		}
		widgets = append(widgets, dismiss.Widget{InputID: cfg.InputID, DropdownID: cfg.DropdownID})
		if cfg.Kind == trackerapi.Satellite {
			s.SatelliteSearch = ac
		} else {
			s.CountrySearch = ac
		}
	}
	if len(widgets) > 0 {
		dismiss.Install(p, widgets...)
	}

	for _, kind := range []trackerapi.Kind{trackerapi.Satellite, trackerapi.Country} {
		list, err := mountList(p, api, host, kind, opts.Layout, logger)
		if err != nil {
			return nil, err
		}
		if kind == trackerapi.Satellite {
			s.Satellites = list
		} else {
			s.Countries = list
		}
	}

	if p.Exists(account.CreateUsernameID) || p.Exists(account.LoginUsernameID) {
		s.Account = account.New(p, api, host, logger)
		if err := bindClick(p, "create-account", s.Account.CreateAccount); err != nil {
			return nil, err
		}
		if err := bindClick(p, "login-button", s.Account.Login); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func mountList(p *page.Page, api API, host page.Host, kind trackerapi.Kind, layout string, logger *slog.Logger) (*tracking.List, error) {
	cfg, err := tracking.NewConfig(kind, layout)
	if err != nil {
		return nil, err
	}
	if !p.Exists(cfg.SearchBoxID) {
		return nil, nil
	}

	list, err := tracking.New(p, api, host, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := list.Bind(); err != nil {
		if errors.Is(err, page.ErrNoElement) {
			logger.Debug("no list container on page", "kind", string(kind), "container", cfg.Layout.Container)
			return nil, nil
		}
		return nil, err
	}
	if err := bindClick(p, fmt.Sprintf("add-%s", kind), list.Add); err != nil {
		return nil, err
	}
	return list, nil
}

// bindClick binds fn to clicks on id when the element exists.
func bindClick(p *page.Page, id string, fn func(context.Context)) error {
	if !p.Exists(id) {
		return nil
	}
	return p.On(id, page.Click, func(ctx context.Context, _ page.Event) { fn(ctx) })
}
