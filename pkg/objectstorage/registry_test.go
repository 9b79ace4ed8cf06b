package objectstorage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testConfig() Config {
	return Config{
		ObjectStorages: map[string]NodeConfig{
			"tuebingen": {
				Bucket: "inbox",
				Credentials: S3Config{
					EndpointURL:     "https://s3.tuebingen.example",
					AccessKeyID:     "test-access",
					SecretAccessKey: "test-secret",
				},
			},
			"heidelberg": {
				Bucket: "staging",
				Credentials: S3Config{
					EndpointURL:     "http://s3.heidelberg.example:9000",
					AccessKeyID:     "test-access",
					SecretAccessKey: "test-secret",
				},
			},
		},
	}
}

func TestForAlias(t *testing.T) {
	registry := NewRegistry(testConfig())

	bucket, storage, err := registry.ForAlias("tuebingen")
	require.NoError(t, err)
	assert.Equal(t, "inbox", bucket)
	assert.NotNil(t, storage)

	bucket, _, err = registry.ForAlias("heidelberg")
	require.NoError(t, err)
	assert.Equal(t, "staging", bucket)
}

func TestForAliasReusesClients(t *testing.T) {
	registry := NewRegistry(testConfig())

	_, first, err := registry.ForAlias("tuebingen")
	require.NoError(t, err)
	_, second, err := registry.ForAlias("tuebingen")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestForAliasUnknown(t *testing.T) {
	registry := NewRegistry(testConfig())

	_, _, err := registry.ForAlias("unknown")
	assert.ErrorIs(t, err, ErrUnknownAlias)
}

func TestForAliasBadCredentials(t *testing.T) {
	registry := NewRegistry(Config{
		ObjectStorages: map[string]NodeConfig{
			"broken": {Bucket: "b", Credentials: S3Config{}},
		},
	})

	_, _, err := registry.ForAlias("broken")
	assert.ErrorContains(t, err, "endpoint URL")
}

func TestAliases(t *testing.T) {
	registry := NewRegistry(testConfig())
	assert.ElementsMatch(t, []string{"tuebingen", "heidelberg"}, registry.Aliases())
}

func TestConfigFromYAML(t *testing.T) {
	raw := `
object_storages:
  tuebingen:
    bucket: inbox
    credentials:
      s3_endpoint_url: https://s3.tuebingen.example
      s3_access_key_id: test-access
      s3_secret_access_key: test-secret
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))
	node, ok := cfg.ObjectStorages["tuebingen"]
	require.True(t, ok)
	assert.Equal(t, "inbox", node.Bucket)
	assert.Equal(t, "https://s3.tuebingen.example", node.Credentials.EndpointURL)
}

func TestNewS3StorageValidation(t *testing.T) {
	_, err := NewS3Storage(S3Config{})
	assert.ErrorContains(t, err, "endpoint URL")

	_, err = NewS3Storage(S3Config{EndpointURL: "not-a-url"})
	assert.ErrorContains(t, err, "no host")

	storage, err := NewS3Storage(S3Config{
		EndpointURL:     "https://s3.example.org",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.NotNil(t, storage)
}
