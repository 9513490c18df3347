package tui

import (
	"sort"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/model"
)

// DefaultCategories are offered when no cleaned data is available.
var DefaultCategories = []string{"airtime", "loan", "data", "utility"}

// Options seeds the form: suggestion lists per categorical field and the
// starting value of every field.
type Options struct {
	Customers  []string
	Channels   []string
	Providers  []string
	Categories []string
	Defaults   model.Transaction
}

// DefaultOptions returns the form defaults without suggestion lists.
func DefaultOptions() Options {
	return Options{
		Categories: DefaultCategories,
		Defaults: model.Transaction{
			Amount:          1000,
			Value:           1000,
			ProductCategory: DefaultCategories[0],
			StartTime:       "2018-11-15 03:12:00+00:00",
		},
	}
}

// OptionsFromTable builds suggestion lists from the distinct values of a
// cleaned transaction table. The first value of each list becomes the field's
// default.
func OptionsFromTable(t *dataset.Table) Options {
	o := DefaultOptions()
	o.Customers = distinct(t.Column(model.ColCustomerID))
	o.Channels = distinct(t.Column(model.ColChannelID))
	o.Providers = distinct(t.Column(model.ColProviderID))
	if cats := distinct(t.Column(model.ColProductCategory)); len(cats) > 0 {
		o.Categories = cats
	}

	o.Defaults.CustomerID = first(o.Customers)
	o.Defaults.ChannelID = first(o.Channels)
	o.Defaults.ProviderID = first(o.Providers)
	o.Defaults.ProductCategory = first(o.Categories)
	return o
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
