package storesource

import (
	"strings"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

// Fallback is the static catalog served when the career API cannot be reached.
func Fallback(suburl string) model.Catalog {
	sub := strings.TrimSpace(suburl)
	if sub == "" {
		sub = DefaultSuburl
	}
	brand := strings.ToUpper(sub)

	center := model.Coordinate{Lat: 47.9187, Lng: 106.9177}
	store := model.NewStore("1", "Store Central", "Central Location", &center, []model.Position{
		{
			ID:          "pos1",
			Title:       "Sales Associate",
			SalaryRange: "₮1.8M-2.2M",
			StoreID:     "1",
			BranchName:  "Store Central",
		},
	})

	return model.Catalog{
		Company: model.Company{
			CompanyID:         sub,
			BrandName:         brand,
			Subdomain:         sub + SubdomainSuffix,
			BrandColor:        DefaultBrandColor,
			BrandGradient:     DefaultBrandGradient,
			Advantages:        []string{},
			Benefits:          []string{},
			Country:           DefaultCountry,
			MaxStoreSelection: 1,
			Features: model.Features{
				HasShiftPreferences: true,
				HasUrgentPositions:  true,
			},
		},
		Stores: []model.Store{store},
		Source: model.SourceFallback,
	}
}
