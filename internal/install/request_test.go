package install

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *Request {
	return &Request{
		Console: "console.local:8084",
		APIBase: "https://console.local:8083",
		Token:   "secret",
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validRequest().Validate())
	})

	t.Run("all env vars missing are reported together", func(t *testing.T) {
		err := (&Request{}).Validate()

		ce := &ConfigurationError{}
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{EnvConsole, EnvAPI, EnvToken}, ce.Missing)
	})

	t.Run("one missing env var is named exactly", func(t *testing.T) {
		req := validRequest()
		req.Token = ""
		err := req.Validate()

		ce := &ConfigurationError{}
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{EnvToken}, ce.Missing)
	})

	t.Run("tag without a source", func(t *testing.T) {
		req := validRequest()
		req.Tag = "_1_2_3"
		err := req.Validate()

		re := &ResolutionError{}
		require.ErrorAs(t, err, &re)
		assert.Equal(t, MissingImageSource, re.Reason)
	})

	t.Run("blank tag", func(t *testing.T) {
		req := validRequest()
		req.Tag = "   "
		req.Source = ImageSource{Kind: SourceRegistry, Value: "registry.local"}

		ce := &ConfigurationError{}
		require.ErrorAs(t, req.Validate(), &ce)
	})

	t.Run("source without a tag", func(t *testing.T) {
		req := validRequest()
		req.Source = ImageSource{Kind: SourceArchive, Value: "defender.tar.gz"}

		ce := &ConfigurationError{}
		require.ErrorAs(t, req.Validate(), &ce)
	})
}

func TestConfigurationErrorString(t *testing.T) {
	err := &ConfigurationError{Missing: []string{EnvAPI, EnvToken}}
	assert.Equal(t, "missing required environment variables: TWISTLOCK_API, TWISTLOCK_TOKEN", err.Error())
}
