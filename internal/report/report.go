// Package report aggregates work reports per client.
package report

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Tiliavir/rapportini/internal/model"
)

// ClientTotal is the aggregate for one client.
type ClientTotal struct {
	Client  string          `json:"client" yaml:"client"`
	Records int             `json:"records" yaml:"records"`
	Hours   decimal.Decimal `json:"hours" yaml:"hours"`
	Amount  decimal.Decimal `json:"amount" yaml:"amount"`
}

// Summary holds per-client totals, sorted by client name, and the grand total.
type Summary struct {
	Clients []ClientTotal   `json:"clients" yaml:"clients"`
	Hours   decimal.Decimal `json:"total_hours" yaml:"total_hours"`
	Amount  decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	// Invalid counts records skipped because hours or amount is not a number.
	Invalid int `json:"invalid" yaml:"invalid"`
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Summarize totals records by client. Records whose hours or amount is NaN
// or infinite (possible after a CSV import) are counted in Invalid and left
// out of the totals.
func Summarize(records []model.Record) Summary {
	byClient := map[string]*ClientTotal{}
	var s Summary
	for _, r := range records {
		if !finite(r.Hours) || !finite(r.Amount) {
			s.Invalid++
			continue
		}
		ct, ok := byClient[r.Client]
		if !ok {
			ct = &ClientTotal{Client: r.Client}
			byClient[r.Client] = ct
		}
		hours := decimal.NewFromFloat(r.Hours)
		amount := decimal.NewFromFloat(r.Amount)
		ct.Records++
		ct.Hours = ct.Hours.Add(hours)
		ct.Amount = ct.Amount.Add(amount)
		s.Hours = s.Hours.Add(hours)
		s.Amount = s.Amount.Add(amount)
	}

	s.Clients = make([]ClientTotal, 0, len(byClient))
	for _, ct := range byClient {
		s.Clients = append(s.Clients, *ct)
	}
	sort.Slice(s.Clients, func(i, j int) bool {
		return s.Clients[i].Client < s.Clients[j].Client
	})
	return s
}
