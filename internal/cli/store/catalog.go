package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/travelsystem/tso/internal/cli/client"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"TRY": "₺",
}

// Catalog returns the store modules with Enabled reflecting the caller's
// company rather than the catalogue default
func Catalog(ctx context.Context, api API) ([]client.StoreModule, error) {
	modules, err := api.ListStoreModules(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := api.MyCompany(ctx)
	if err != nil {
		return nil, err
	}
	for i := range modules {
		modules[i].Enabled = resp.Company.ModulesEnabled[modules[i].Name]
	}
	return modules, nil
}

// FindPlan looks a plan up by module name and plan id
func FindPlan(modules []client.StoreModule, module, planID string) (*client.Plan, bool) {
	for _, m := range modules {
		if m.Name != module {
			continue
		}
		for i := range m.Plans {
			if m.Plans[i].ID == planID {
				return &m.Plans[i], true
			}
		}
	}
	return nil, false
}

// FormatPrice renders an amount given in minor units (cents, kuruş)
func FormatPrice(amount int64, currency string) string {
	code := strings.ToUpper(currency)
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	value := fmt.Sprintf("%d.%02d", amount/100, amount%100)

	if symbol, ok := currencySymbols[code]; ok {
		return sign + symbol + value
	}
	return strings.TrimSpace(sign + value + " " + code)
}

// FormatPlan renders a plan as "Name  €12.00 / month"
func FormatPlan(p client.Plan) string {
	price := FormatPrice(p.Amount, p.Currency)
	if p.Interval != "" {
		price += " / " + p.Interval
	}
	return fmt.Sprintf("%s  %s", p.Name, price)
}
