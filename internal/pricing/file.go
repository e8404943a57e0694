package pricing

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type fileRules struct {
	TaxRate               *string `yaml:"tax_rate"`
	ShippingFee           *string `yaml:"shipping_fee"`
	FreeShippingThreshold *string `yaml:"free_shipping_threshold"`
}

// LoadFile overlays the values present in a YAML file on top of base.
//
//	tax_rate: "0.2"
//	shipping_fee: "5"
//	free_shipping_threshold: "50"
func LoadFile(path string, base Rules) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read pricing file: %w", err)
	}
	return Parse(raw, base)
}

func Parse(raw []byte, base Rules) (Rules, error) {
	var f fileRules
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Rules{}, fmt.Errorf("decode pricing file: %w", err)
	}

	out := base
	for _, field := range []struct {
		name string
		src  *string
		dst  *decimal.Decimal
	}{
		{"tax_rate", f.TaxRate, &out.TaxRate},
		{"shipping_fee", f.ShippingFee, &out.ShippingFee},
		{"free_shipping_threshold", f.FreeShippingThreshold, &out.FreeShippingThreshold},
	} {
		if field.src == nil {
			continue
		}
		v, err := decimal.NewFromString(*field.src)
		if err != nil {
			return Rules{}, fmt.Errorf("pricing file %s: %w", field.name, err)
		}
		*field.dst = v
	}

	if err := out.Validate(); err != nil {
		return Rules{}, err
	}
	return out, nil
}
