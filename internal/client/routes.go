package client

import (
	"context"

	"github.com/isdelr/datingapp-be/internal/services"
)

const (
	memberListPage     = 1
	memberListPageSize = 5
)

// WithToken returns a copy of a that sends token.
func (a *API) WithToken(token string) *API {
	c := *a
	c.token = token
	return &c
}

// DefaultRoutes is the navigation table of the member area.
func DefaultRoutes(api *API) []Route {
	home := HomePath
	return []Route{
		{Path: ""},
		{
			Path:      "members",
			Protected: true,
			Fallback:  HomePath,
			Resolve: func(ctx context.Context, req Request) (interface{}, error) {
				page, err := api.WithToken(req.Session.Token).GetMembers(ctx, memberListPage, memberListPageSize)
				if err != nil {
					return nil, err
				}
				return page, nil
			},
		},
		{
			Path:      "members/:id",
			Protected: true,
			Fallback:  "members",
			Resolve: func(ctx context.Context, req Request) (interface{}, error) {
				m, err := api.WithToken(req.Session.Token).GetMember(ctx, req.Params["id"])
				if err != nil {
					return nil, err
				}
				return m, nil
			},
		},
		{
			Path:      "member/edit",
			Protected: true,
			Fallback:  "members",
			Notice:    "Problem retrieving your data",
			Resolve: func(ctx context.Context, req Request) (interface{}, error) {
				m, err := api.WithToken(req.Session.Token).GetMember(ctx, req.Session.UserID())
				if err != nil {
					return nil, err
				}
				return m, nil
			},
		},
		{
			Path:      "admin",
			Protected: true,
			Roles:     []string{services.RoleAdmin, services.RoleModerator},
			Fallback:  HomePath,
			Resolve: func(ctx context.Context, req Request) (interface{}, error) {
				users, err := api.WithToken(req.Session.Token).UsersWithRoles(ctx)
				if err != nil {
					return nil, err
				}
				return users, nil
			},
		},
		{Path: "**", RedirectTo: &home},
	}
}
