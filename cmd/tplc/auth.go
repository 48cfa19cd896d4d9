package main

import (
	"context"

	"tplc/internal/domain"
)

func (a *app) runLogin(ctx context.Context) error {
	if err := a.session.Login(ctx, nil); err != nil {
		return err
	}

	status := a.session.Status()
	result := map[string]any{
		"status":            "authenticated",
		"username":          status.Username,
		"kasa_regional_url": status.KasaRegionalURL,
	}
	if status.TapoAuthenticated {
		result["tapo"] = "authenticated"
	} else {
		result["tapo"] = "unavailable"
	}
	printJSON(result)
	return nil
}

func (a *app) runLogout() error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	printJSON(map[string]any{"status": "logged_out"})
	return nil
}

func (a *app) runStatus() error {
	status := a.session.Status()
	if !status.Authenticated {
		printJSON(map[string]any{"status": "not_authenticated"})
		return nil
	}
	printJSON(map[string]any{
		"status":                 "authenticated",
		"username":               status.Username,
		"kasa_regional_url":      status.KasaRegionalURL,
		"has_kasa_refresh_token": status.HasKasaRefresh,
		"tapo_authenticated":     status.TapoAuthenticated,
		"has_tapo_refresh_token": status.HasTapoRefresh,
	})
	return nil
}

// resolveArg turns the positional device argument into a handle.
func (a *app) resolveArg(ctx context.Context, args []string, usage string) (domain.ResolvedDevice, []string, error) {
	if len(args) == 0 {
		return domain.ResolvedDevice{}, nil, &domain.InvalidInputError{Message: "usage: " + usage}
	}
	dev, err := a.catalog.Resolve(ctx, args[0])
	if err != nil {
		return domain.ResolvedDevice{}, nil, err
	}
	return dev, args[1:], nil
}
