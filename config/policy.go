// config/policy.go
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	gateguard_errors "github.com/gateguard/gateguard/errors"
	"github.com/gateguard/gateguard/expr"
	"github.com/gateguard/gateguard/model"
)

// scopeSpec is the raw per-scope configuration before merging. Pointer
// fields are tri-state: nil means unset, so the value is inherited from the
// nearest ancestor that sets it explicitly.
type scopeSpec struct {
	Prefix            string
	Enabled           *bool
	Fallback          *string
	BlockedStatusCode *int `mapstructure:"blockedStatusCode"`
	Redirect          *string
}

// mergeScope overlays add on base: explicitly set fields win, unset fields
// inherit.
func mergeScope(base, add scopeSpec) scopeSpec {
	merged := base
	merged.Prefix = add.Prefix
	if add.Enabled != nil {
		merged.Enabled = add.Enabled
	}
	if add.Fallback != nil {
		merged.Fallback = add.Fallback
	}
	if add.BlockedStatusCode != nil {
		merged.BlockedStatusCode = add.BlockedStatusCode
	}
	if add.Redirect != nil {
		merged.Redirect = add.Redirect
	}
	return merged
}

// ScopePolicy binds a resolved, immutable policy to a path prefix.
type ScopePolicy struct {
	Prefix string
	Policy *model.AccessPolicy
}

// PolicySet holds the resolved default policy plus per-prefix overrides.
// Resolution happens once at load; request time is a pure prefix lookup.
type PolicySet struct {
	Default *model.AccessPolicy
	Scopes  []ScopePolicy
}

// ForPath returns the policy of the most specific scope covering path.
func (ps *PolicySet) ForPath(path string) *model.AccessPolicy {
	for _, scope := range ps.Scopes {
		if strings.HasPrefix(path, scope.Prefix) {
			return scope.Policy
		}
	}
	return ps.Default
}

// BuildPolicySet resolves the admission policies from the loaded
// configuration. Bad fallback keywords, status codes and redirect
// expressions are configuration errors and fail the load; they are never
// seen at request time.
func BuildPolicySet() (*PolicySet, error) {
	root := scopeSpec{
		Enabled: boolPtr(viper.GetBool("admission.enabled")),
	}
	if viper.IsSet("admission.fallback") {
		fallback := viper.GetString("admission.fallback")
		root.Fallback = &fallback
	}
	if viper.IsSet("admission.blockedStatusCode") {
		statusCode := viper.GetInt("admission.blockedStatusCode")
		root.BlockedStatusCode = intPtr(statusCode)
	}
	if redirect := viper.GetString("admission.redirect"); redirect != "" {
		root.Redirect = &redirect
	}

	defaultPolicy, err := resolvePolicy(root)
	if err != nil {
		return nil, err
	}

	var specs []scopeSpec
	if err := viper.UnmarshalKey("admission.scopes", &specs); err != nil {
		return nil, fmt.Errorf("invalid admission scopes: %w", err)
	}

	set := &PolicySet{Default: defaultPolicy}
	for _, spec := range specs {
		if spec.Prefix == "" {
			return nil, fmt.Errorf("admission scope is missing a prefix")
		}
		policy, err := resolvePolicy(mergeScope(root, spec))
		if err != nil {
			return nil, fmt.Errorf("admission scope %q: %w", spec.Prefix, err)
		}
		set.Scopes = append(set.Scopes, ScopePolicy{Prefix: spec.Prefix, Policy: policy})
	}

	// longest prefix first so ForPath finds the most specific scope
	sort.SliceStable(set.Scopes, func(i, j int) bool {
		return len(set.Scopes[i].Prefix) > len(set.Scopes[j].Prefix)
	})

	return set, nil
}

// resolvePolicy validates a fully merged scope and freezes it into an
// immutable AccessPolicy.
func resolvePolicy(spec scopeSpec) (*model.AccessPolicy, error) {
	policy := &model.AccessPolicy{
		Fallback:          model.FallbackFail,
		BlockedStatusCode: 429,
	}

	if spec.Enabled != nil {
		policy.Enabled = *spec.Enabled
	}

	if spec.Fallback != nil {
		fallback, err := ParseFallback(*spec.Fallback)
		if err != nil {
			return nil, err
		}
		policy.Fallback = fallback
	}

	if spec.BlockedStatusCode != nil {
		if !model.AllowedBlockedStatusCodes[*spec.BlockedStatusCode] {
			return nil, fmt.Errorf("%w: %d (valid values are 403, 429 and 500)",
				gateguard_errors.ErrInvalidStatusCode, *spec.BlockedStatusCode)
		}
		policy.BlockedStatusCode = *spec.BlockedStatusCode
	}

	if spec.Redirect != nil && *spec.Redirect != "" {
		compiled, err := expr.CompileRedirect(*spec.Redirect)
		if err != nil {
			return nil, err
		}
		policy.Redirect = compiled
	}

	return policy, nil
}

// ParseFallback maps a fallback keyword to its enum value.
func ParseFallback(keyword string) (model.Fallback, error) {
	switch keyword {
	case "fail":
		return model.FallbackFail, nil
	case "block":
		return model.FallbackBlock, nil
	case "allow":
		return model.FallbackAllow, nil
	}
	return 0, fmt.Errorf("%w: %q (valid values are 'fail', 'block' and 'allow')",
		gateguard_errors.ErrInvalidFallback, keyword)
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }
