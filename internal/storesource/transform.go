package storesource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

const (
	DefaultBrandColor    = "#3b82f6"
	DefaultBrandGradient = "linear-gradient(135deg, #0a1929 0%, #1e3a8a 25%, #1e40af 50%, #2563eb 75%, #3b82f6 100%)"
	DefaultCountry       = "MN"
	SubdomainSuffix      = ".oneplace.hr"

	negotiableSalary  = "Цалин тохиролцоно"
	defaultPosition   = "Position"
	defaultJobWord    = "Ажлын байр"
	missingAddress    = "Address not provided"
	branchNamePrefix  = "Салбар "
	descriptionSuffix = " - дэлгэрэнгүй мэдээлэл"
)

var defaultRequirements = []string{"Туршлага шаардагдахгүй", "Эерэг хандлага", "Багаар ажиллах чадвар"}

func defaultFeatures() model.Features {
	return model.Features{
		HasShiftPreferences:        true,
		RequiresExperience:         false,
		HasUrgentPositions:         true,
		AllowsMultipleApplications: false,
	}
}

// TransformCompany builds the company config. Root-level identity fields win
// when companyId is present at the root; descriptive fields prefer the nested
// companyConfig.
func TransformCompany(raw RawCompany) model.Company {
	var cfg RawConfig
	if raw.Config != nil {
		cfg = *raw.Config
	}
	description := firstNonEmpty(cfg.CompanyDescription, cfg.Description)
	if raw.CompanyID != "" {
		cfg.CompanyID = raw.CompanyID
		cfg.Name = raw.Name
		cfg.PhotoURL = raw.PhotoURL
		cfg.Color = raw.Color
		cfg.Country = firstNonEmpty(cfg.Country, raw.Country)
		description = firstNonEmpty(description, raw.Description)
		if len(cfg.Advantages) == 0 {
			cfg.Advantages = raw.Advantages
		}
		if len(cfg.Benefits) == 0 {
			cfg.Benefits = raw.Benefits
		}
	}

	name := strings.TrimSpace(cfg.Name)
	c := model.Company{
		CompanyID:         firstNonEmpty(cfg.CompanyID.String(), "company"),
		BrandName:         firstNonEmpty(name, "Company"),
		Subdomain:         firstNonEmpty(name, "company") + SubdomainSuffix,
		BrandColor:        firstNonEmpty(cfg.Color, DefaultBrandColor),
		BrandGradient:     DefaultBrandGradient,
		PhotoURL:          cfg.PhotoURL,
		Description:       description,
		Advantages:        nonNil(cfg.Advantages),
		Benefits:          nonNil(cfg.Benefits),
		Country:           strings.ToUpper(firstNonEmpty(cfg.Country, DefaultCountry)),
		MaxStoreSelection: 1,
		Features:          defaultFeatures(),
	}
	if cfg.Color != "" {
		c.BrandGradient = fmt.Sprintf("linear-gradient(135deg, %s99 0%%, %s 100%%)", cfg.Color, cfg.Color)
	}
	return c
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// TransformStores converts raw branches. Malformed coordinates produce an
// uncoordinated store; they never drop the branch.
func TransformStores(branches []RawBranch) []model.Store {
	out := make([]model.Store, 0, len(branches))
	for _, b := range branches {
		out = append(out, TransformStore(b))
	}
	return out
}

func TransformStore(b RawBranch) model.Store {
	id := b.BranchID.String()
	name := firstNonEmpty(strings.TrimSpace(b.BranchName), branchNamePrefix+id)
	address := firstNonEmpty(b.Address, b.BranchAddress, b.Location, missingAddress)
	return model.NewStore(id, name, address, ParseCoordinates(b.Coordinates), TransformPositions(b))
}

// ParseCoordinates accepts "lat,lng", [lat, lng] (numbers or numeric strings)
// or null. Any other shape yields nil.
func ParseCoordinates(raw json.RawMessage) *model.Coordinate {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var parts []string
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		parts = strings.Split(s, ",")
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		for _, it := range items {
			txt, ok := rawNumberOrString(it)
			if !ok {
				return nil
			}
			parts = append(parts, txt)
		}
	default:
		return nil
	}

	if len(parts) != 2 {
		return nil
	}
	lat, ok1 := parseFloatText(parts[0])
	lng, ok2 := parseFloatText(parts[1])
	if !ok1 || !ok2 {
		return nil
	}
	c := model.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil
	}
	return &c
}

// TransformPositions maps branch jobs to positions; the first job is flagged urgent.
func TransformPositions(b RawBranch) []model.Position {
	out := make([]model.Position, 0, len(b.Jobs))
	branchID := b.BranchID.String()
	for i, j := range b.Jobs {
		title := strings.TrimSpace(j.JobName)
		out = append(out, model.Position{
			ID:          firstNonEmpty(j.JobID.String(), fmt.Sprintf("pos_%s_%d", branchID, i)),
			Title:       firstNonEmpty(title, defaultPosition),
			Urgent:      i == 0,
			SalaryRange: FormatSalary(j.Salary),
			Description: firstNonEmpty(title, defaultJobWord) + descriptionSuffix,
			StoreID:     branchID,
			BranchName:  b.BranchName,
			Tags:        append([]string(nil), defaultRequirements...),
		})
	}
	return out
}

// FormatSalary renders the leading integer of a salary as "₮1,800,000".
// Missing, zero or non-numeric salaries read as negotiable.
func FormatSalary(raw json.RawMessage) string {
	txt, ok := rawNumberOrString(raw)
	if !ok {
		return negotiableSalary
	}
	n, ok := leadingInt(txt)
	if !ok || n == 0 {
		return negotiableSalary
	}
	return "₮" + groupThousands(n)
}

func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
