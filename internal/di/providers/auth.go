package providers

import (
	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/baas"
	"github.com/tabsverse/tabsverse-server/internal/config"
)

// ProvideVerifier provides the verifier for BaaS-issued access tokens.
func ProvideVerifier(i do.Injector) (*baas.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return baas.NewVerifier(cfg.Supabase.JWTSecret), nil
}
