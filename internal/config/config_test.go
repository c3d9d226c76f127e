package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalYAML = `
app:
  port: 8080
mongo:
  uri: mongodb://localhost:27017
  db: nexthread
redis:
  addr: localhost:6379
jwt:
  alg: HS256
  hs_secret: s3cret
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "Users", cfg.Mongo.Users)
	assert.Equal(t, "Messages", cfg.Mongo.Messages)
	assert.Equal(t, "nexthread", cfg.Redis.Prefix)
	assert.Equal(t, "following", cfg.Directory.Visibility)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.PresenceGrace)
	assert.Equal(t, 5*time.Minute, cfg.PresenceTTL)
	assert.Equal(t, "8080", cfg.App.PortString())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
directory:
  visibility: mutual
presence:
  grace_seconds: 10
  cache_ttl_seconds: 60
`))
	require.NoError(t, err)

	assert.Equal(t, "mutual", cfg.Directory.Visibility)
	assert.Equal(t, 10*time.Second, cfg.PresenceGrace)
	assert.Equal(t, time.Minute, cfg.PresenceTTL)
}

func TestLoadRejectsInvalidVisibility(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
directory:
  visibility: everyone
`))
	assert.ErrorContains(t, err, "directory.visibility")
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	cases := map[string]string{
		"port": `
mongo:
  uri: mongodb://localhost:27017
  db: x
redis:
  addr: localhost:6379
jwt: {alg: HS256, hs_secret: s}
`,
		"mongo.uri": `
app: {port: 8080}
mongo: {db: x}
redis: {addr: localhost:6379}
jwt: {alg: HS256, hs_secret: s}
`,
		"redis.addr": `
app: {port: 8080}
mongo: {uri: mongodb://localhost:27017, db: x}
jwt: {alg: HS256, hs_secret: s}
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadJWTValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
app: {port: 8080}
mongo: {uri: mongodb://localhost:27017, db: x}
redis: {addr: localhost:6379}
jwt: {alg: RS256}
`))
	assert.ErrorContains(t, err, "public_key_path")

	_, err = Load(writeConfig(t, `
app: {port: 8080}
mongo: {uri: mongodb://localhost:27017, db: x}
redis: {addr: localhost:6379}
jwt: {alg: ES384, hs_secret: s}
`))
	assert.ErrorContains(t, err, "jwt.alg")
}
