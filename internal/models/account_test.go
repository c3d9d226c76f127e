package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanMessageRequiresBothEdges(t *testing.T) {
	alice := &Account{ID: "alice", Following: []string{"bob"}}
	bob := &Account{ID: "bob", Following: []string{"alice"}}

	assert.True(t, CanMessage(alice, bob))
	assert.True(t, CanMessage(bob, alice), "gate is symmetric")

	// Dropping either edge closes the gate in both directions.
	bob.Following = nil
	assert.False(t, CanMessage(alice, bob))
	assert.False(t, CanMessage(bob, alice))

	bob.Following = []string{"alice"}
	alice.Following = nil
	assert.False(t, CanMessage(alice, bob))
	assert.False(t, CanMessage(bob, alice))
}

func TestCanMessageNilAccounts(t *testing.T) {
	a := &Account{ID: "a", Following: []string{"b"}}
	assert.False(t, CanMessage(nil, a))
	assert.False(t, CanMessage(a, nil))
	assert.False(t, CanMessage(nil, nil))
}

func TestCanMessageIgnoresFollowers(t *testing.T) {
	// Followers lists are the inverse index; only following edges count.
	a := &Account{ID: "a", Followers: []string{"b"}}
	b := &Account{ID: "b", Followers: []string{"a"}}
	assert.False(t, CanMessage(a, b))
}

func TestFollows(t *testing.T) {
	a := &Account{ID: "a", Following: []string{"x", "y"}}
	assert.True(t, a.Follows("x"))
	assert.False(t, a.Follows("z"))
	assert.False(t, a.Follows(""))
}
