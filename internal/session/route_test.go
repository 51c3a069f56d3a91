package session

import (
	"context"
	"testing"

	"modulys-admin/internal/domain"
	"modulys-admin/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	admin := &domain.Identity{ID: "1", Email: "a@b.com", Name: "Admin", Role: "SUPER_ADMIN"}

	tests := []struct {
		name  string
		state State
		route string
		want  Decision
	}{
		{"loading_protected", State{Loading: true}, "/dashboard", Decision{Action: ActionSuspend}},
		{"loading_login", State{Loading: true}, "/login", Decision{Action: ActionSuspend}},
		{"loading_with_identity", State{Loading: true, Identity: admin}, "/login", Decision{Action: ActionSuspend}},
		{"anonymous_protected", State{}, "/dashboard", Decision{Action: ActionRedirect, Target: "/login"}},
		{"anonymous_nested", State{}, "/tenants/42", Decision{Action: ActionRedirect, Target: "/login"}},
		{"anonymous_login", State{}, "/login", Decision{Action: ActionRender}},
		{"anonymous_root", State{}, "/", Decision{Action: ActionRender}},
		{"anonymous_empty", State{}, "", Decision{Action: ActionRender}},
		{"anonymous_login_trailing_slash", State{}, "/login/", Decision{Action: ActionRender}},
		{"authenticated_login", State{Identity: admin}, "/login", Decision{Action: ActionRedirect, Target: "/dashboard"}},
		{"authenticated_login_trailing_slash", State{Identity: admin}, "/login/", Decision{Action: ActionRedirect, Target: "/dashboard"}},
		{"authenticated_root", State{Identity: admin}, "/", Decision{Action: ActionRender}},
		{"authenticated_protected", State{Identity: admin}, "/tenants", Decision{Action: ActionRender}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.route))
		})
	}
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		route string
		want  bool
	}{
		{"/", true},
		{"/login", true},
		{"login", true},
		{"/login/", true},
		{"/dashboard", false},
		{"/login/extra", false},
		{"/logins", false},
		{"/api/me", false},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublic(tt.route))
		})
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "render", ActionRender.String())
	assert.Equal(t, "suspend", ActionSuspend.String())
	assert.Equal(t, "redirect", ActionRedirect.String())
}

func TestGuard_CheckFollowsLifecycle(t *testing.T) {
	g, _ := newGuard(testutil.NewMockStore())

	assert.Equal(t, ActionSuspend, g.Check("/dashboard").Action)

	g.Restore(context.Background())
	assert.Equal(t, Decision{Action: ActionRedirect, Target: LoginRoute}, g.Check("/dashboard"))
	assert.Equal(t, ActionRender, g.Check("/login").Action)
}

func TestPendingRedirect(t *testing.T) {
	var p PendingRedirect

	_, ok := p.Target()
	assert.False(t, ok)

	p.Navigate("/dashboard")
	p.Navigate("/login")

	target, ok := p.Target()
	assert.True(t, ok)
	assert.Equal(t, "/login", target)
}
