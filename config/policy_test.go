// config/policy_test.go
package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateguard/gateguard/config"
	"github.com/gateguard/gateguard/model"
)

func resetViper(t *testing.T, settings map[string]interface{}) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for key, value := range settings {
		viper.Set(key, value)
	}
}

func TestBuildPolicySet(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.enabled": true,
		})

		set, err := config.BuildPolicySet()
		require.NoError(t, err)
		assert.True(t, set.Default.Enabled)
		assert.Equal(t, model.FallbackFail, set.Default.Fallback)
		assert.Equal(t, 429, set.Default.BlockedStatusCode)
		assert.Nil(t, set.Default.Redirect)
	})

	t.Run("ExplicitValues", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.enabled":           true,
			"admission.fallback":          "allow",
			"admission.blockedStatusCode": 403,
			"admission.redirect":          `'https://example.com/blocked'`,
		})

		set, err := config.BuildPolicySet()
		require.NoError(t, err)
		assert.Equal(t, model.FallbackAllow, set.Default.Fallback)
		assert.Equal(t, 403, set.Default.BlockedStatusCode)
		require.NotNil(t, set.Default.Redirect)

		target, err := set.Default.Redirect.Eval(&model.RequestContext{})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/blocked", target)
	})

	t.Run("ScopeInheritsUnsetFields", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.enabled":           true,
			"admission.fallback":          "block",
			"admission.blockedStatusCode": 403,
			"admission.scopes": []map[string]interface{}{
				{"prefix": "/api", "blockedStatusCode": 429},
			},
		})

		set, err := config.BuildPolicySet()
		require.NoError(t, err)
		require.Len(t, set.Scopes, 1)

		scoped := set.Scopes[0].Policy
		assert.True(t, scoped.Enabled)
		assert.Equal(t, model.FallbackBlock, scoped.Fallback)
		assert.Equal(t, 429, scoped.BlockedStatusCode)
	})

	t.Run("ScopeOverridesEnabled", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.enabled": true,
			"admission.scopes": []map[string]interface{}{
				{"prefix": "/healthz", "enabled": false},
			},
		})

		set, err := config.BuildPolicySet()
		require.NoError(t, err)
		assert.False(t, set.ForPath("/healthz").Enabled)
		assert.True(t, set.ForPath("/api").Enabled)
	})

	t.Run("LongestPrefixWins", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.enabled": true,
			"admission.scopes": []map[string]interface{}{
				{"prefix": "/api", "blockedStatusCode": 403},
				{"prefix": "/api/internal", "blockedStatusCode": 500},
			},
		})

		set, err := config.BuildPolicySet()
		require.NoError(t, err)
		assert.Equal(t, 500, set.ForPath("/api/internal/metrics").BlockedStatusCode)
		assert.Equal(t, 403, set.ForPath("/api/orders").BlockedStatusCode)
		assert.Equal(t, 429, set.ForPath("/other").BlockedStatusCode)
	})

	t.Run("InvalidFallback", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.fallback": "explode",
		})

		_, err := config.BuildPolicySet()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid fallback keyword")
	})

	t.Run("InvalidStatusCode", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.blockedStatusCode": 418,
		})

		_, err := config.BuildPolicySet()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid blocked status code")
	})

	t.Run("InvalidRedirectExpression", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.redirect": `1 + 2`,
		})

		_, err := config.BuildPolicySet()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must produce a string")
	})

	t.Run("ScopeWithoutPrefix", func(t *testing.T) {
		resetViper(t, map[string]interface{}{
			"admission.scopes": []map[string]interface{}{
				{"fallback": "allow"},
			},
		})

		_, err := config.BuildPolicySet()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing a prefix")
	})
}

func TestParseFallback(t *testing.T) {
	for keyword, want := range map[string]model.Fallback{
		"fail":  model.FallbackFail,
		"block": model.FallbackBlock,
		"allow": model.FallbackAllow,
	} {
		got, err := config.ParseFallback(keyword)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := config.ParseFallback("deny")
	assert.Error(t, err)
}
