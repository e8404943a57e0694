package pricing

import (
	"fmt"

	"github.com/Skotchmaster/echoshop/pkg/config"
)

// FromConfig builds the rules from the environment values, then applies the
// pricing file on top when one is configured.
func FromConfig(p config.Pricing) (Rules, error) {
	base := Rules{
		TaxRate:               p.TaxRate,
		ShippingFee:           p.ShippingFee,
		FreeShippingThreshold: p.FreeShippingThreshold,
	}
	if err := base.Validate(); err != nil {
		return Rules{}, fmt.Errorf("pricing config: %w", err)
	}
	if p.File == "" {
		return base, nil
	}
	return LoadFile(p.File, base)
}
