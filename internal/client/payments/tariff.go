package payments

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/common"
	"golang.org/x/text/currency"
)

var (
	XOF = currency.MustParseISO("XOF")
	XAF = currency.MustParseISO("XAF")
)

var tariffs = map[models.Plan]int64{
	models.PlanProMonthly: 5000,
	models.PlanProYearly:  50000,
}

// cemac lists the countries settling in XAF.
var cemac = map[string]bool{
	"CM": true,
	"GA": true,
	"CG": true,
	"CF": true,
	"TD": true,
	"GQ": true,
}

// TariffFor is the price of plan in CFA francs.
func TariffFor(plan models.Plan) (int64, error) {
	amount, ok := tariffs[plan]
	if !ok {
		return 0, fmt.Errorf("%w: %q", common.ErrUnknownPlan, plan)
	}
	return amount, nil
}

// ResolveCurrency picks the charge currency for a method: its own currency
// when it is a CFA franc, otherwise the one of its country.
func ResolveCurrency(pm models.PaymentMethod) currency.Unit {
	switch strings.ToUpper(strings.TrimSpace(pm.Currency)) {
	case "XOF":
		return XOF
	case "XAF":
		return XAF
	}
	if cemac[strings.ToUpper(strings.TrimSpace(pm.CountryCode))] {
		return XAF
	}
	return XOF
}
