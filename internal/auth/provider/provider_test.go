package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-client/internal/auth"
)

type namedProvider struct {
	IdentityProvider
	name string
}

func (p namedProvider) Name() string { return p.name }

func TestRegistryGet(t *testing.T) {
	r, err := NewRegistry(namedProvider{name: "keycloak"}, namedProvider{name: "identitytoolkit"})
	require.NoError(t, err)
	assert.Equal(t, []string{"identitytoolkit", "keycloak"}, r.Names())

	p, err := r.Get("keycloak")
	require.NoError(t, err)
	assert.Equal(t, "keycloak", p.Name())

	_, err = r.Get("okta")
	assert.EqualError(t, err, "unknown identity provider: okta (registered: [identitytoolkit keycloak])")
}

func TestRegistryRejectsDuplicatesAndNil(t *testing.T) {
	_, err := NewRegistry(namedProvider{name: "keycloak"}, namedProvider{name: "keycloak"})
	assert.Error(t, err)

	_, err = NewRegistry(nil)
	assert.Error(t, err)
}

func TestNotifierDeliversInOrderAndUnsubscribes(t *testing.T) {
	var n Notifier
	var got []string

	unsubA := n.Subscribe(func(c StateChange) { got = append(got, "a:"+string(c.Kind)) })
	n.Subscribe(func(c StateChange) { got = append(got, "b:"+string(c.Kind)) })

	n.Notify(StateChange{Kind: StateSignedIn, User: &auth.User{UID: "u1"}})
	unsubA()
	unsubA()
	n.Notify(StateChange{Kind: StateSignedOut})

	assert.Equal(t, []string{"a:signed-in", "b:signed-in", "b:signed-out"}, got)
}

func TestNotifierListenerMayUnsubscribeItself(t *testing.T) {
	var n Notifier
	calls := 0
	var unsub func()
	unsub = n.Subscribe(func(StateChange) {
		calls++
		unsub()
	})

	n.Notify(StateChange{Kind: StateTokenRefreshed})
	n.Notify(StateChange{Kind: StateTokenRefreshed})
	assert.Equal(t, 1, calls)
}

