package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"u1", "u2"},
		{"zed", "amy"},
	}
	for _, p := range pairs {
		assert.Equal(t, NewKey(p[0], p[1]), NewKey(p[1], p[0]), "key(%s,%s)", p[0], p[1])
	}
}

func TestNewKeySorted(t *testing.T) {
	k := NewKey("zed", "amy")
	assert.Equal(t, Key{"amy", "zed"}, k)
	assert.Equal(t, "amy:zed", k.String())
}

func TestNewKeyDistinctPeers(t *testing.T) {
	assert.NotEqual(t, NewKey("a", "b"), NewKey("a", "c"))
}

func TestNewKeyDegenerateSelfPair(t *testing.T) {
	k := NewKey("a", "a")
	assert.Equal(t, Key{"a", "a"}, k)
}

func TestPeer(t *testing.T) {
	k := NewKey("bob", "alice")
	assert.Equal(t, "bob", k.Peer("alice"))
	assert.Equal(t, "alice", k.Peer("bob"))
	assert.Equal(t, "", k.Peer("mallory"))
}
