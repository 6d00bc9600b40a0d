package services

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"crowdvest/internal/models"
)

// ProjectFilter is an immutable filter specification for project queries.
// Each With* method returns a modified copy, so the domain logic composes
// filters as values and only the ToBSON boundary knows about the store.
type ProjectFilter struct {
	category       string
	categories     []string
	status         string
	text           string
	roiMin         *float64
	roiMax         *float64
	amountMin      *float64
	amountMax      *float64
	durationMin    *int
	durationMax    *int
	premiumOnly    bool
	excludePremium bool
}

// WithCategory filters on a single category tag
func (f ProjectFilter) WithCategory(category string) ProjectFilter {
	f.category = category
	return f
}

// WithCategories filters on any of several category tags. When supplied it
// replaces the single-category filter.
func (f ProjectFilter) WithCategories(categories []string) ProjectFilter {
	f.categories = categories
	return f
}

// WithStatus filters on project status
func (f ProjectFilter) WithStatus(status string) ProjectFilter {
	f.status = status
	return f
}

// WithText filters on a case-insensitive substring over title and description
func (f ProjectFilter) WithText(text string) ProjectFilter {
	f.text = text
	return f
}

// WithROIRange bounds roiPercent; either bound may be nil
func (f ProjectFilter) WithROIRange(min, max *float64) ProjectFilter {
	f.roiMin, f.roiMax = min, max
	return f
}

// WithAmountRange bounds targetAmount; either bound may be nil
func (f ProjectFilter) WithAmountRange(min, max *float64) ProjectFilter {
	f.amountMin, f.amountMax = min, max
	return f
}

// WithDurationRange bounds durationMonths; either bound may be nil
func (f ProjectFilter) WithDurationRange(min, max *int) ProjectFilter {
	f.durationMin, f.durationMax = min, max
	return f
}

// PremiumOnly restricts to projects flagged isPremium
func (f ProjectFilter) PremiumOnly() ProjectFilter {
	f.premiumOnly = true
	f.excludePremium = false
	return f
}

// ExcludePremium hides projects flagged isPremium (the default listing)
func (f ProjectFilter) ExcludePremium() ProjectFilter {
	f.excludePremium = true
	f.premiumOnly = false
	return f
}

// ToBSON translates the filter specification to a MongoDB query document
func (f ProjectFilter) ToBSON() bson.M {
	query := bson.M{}

	if len(f.categories) > 0 {
		query["category"] = bson.M{"$in": f.categories}
	} else if f.category != "" {
		query["category"] = f.category
	}

	if f.status != "" {
		query["status"] = f.status
	}

	if f.text != "" {
		pattern := primitive.Regex{Pattern: regexQuoteMeta(f.text), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	if rng := rangeDoc(f.roiMin, f.roiMax); rng != nil {
		query["roiPercent"] = rng
	}
	if rng := rangeDoc(f.amountMin, f.amountMax); rng != nil {
		query["targetAmount"] = rng
	}
	if f.durationMin != nil || f.durationMax != nil {
		rng := bson.M{}
		if f.durationMin != nil {
			rng["$gte"] = *f.durationMin
		}
		if f.durationMax != nil {
			rng["$lte"] = *f.durationMax
		}
		query["durationMonths"] = rng
	}

	if f.premiumOnly {
		query["isPremium"] = true
	} else if f.excludePremium {
		query["isPremium"] = bson.M{"$ne": true}
	}

	return query
}

func rangeDoc(min, max *float64) bson.M {
	if min == nil && max == nil {
		return nil
	}
	rng := bson.M{}
	if min != nil {
		rng["$gte"] = *min
	}
	if max != nil {
		rng["$lte"] = *max
	}
	return rng
}

// regexQuoteMeta escapes regex metacharacters so free-text search behaves
// as a plain substring match
func regexQuoteMeta(s string) string {
	special := `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		for j := 0; j < len(special); j++ {
			if c == special[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, c)
	}
	return string(out)
}

// SortSpec resolves a requested sort to a stored column ordering.
// The progress field is derived rather than stored, so requesting it falls
// back to the default ordering until a computed sort is implemented; Applied
// records what ordering actually ran so callers can surface the substitution.
type SortSpec struct {
	Field   string
	Desc    bool
	Applied string
}

// ResolveSort maps a validated request sort to the ordering executed
// against the store
func ResolveSort(sortBy, sortOrder string) SortSpec {
	desc := sortOrder != models.SortOrderAsc

	switch sortBy {
	case "", models.SortByCreatedAt:
		return SortSpec{Field: "createdAt", Desc: desc, Applied: models.SortByCreatedAt}
	case models.SortByROIPercent:
		return SortSpec{Field: "roiPercent", Desc: desc, Applied: models.SortByROIPercent}
	case models.SortByTargetAmount:
		return SortSpec{Field: "targetAmount", Desc: desc, Applied: models.SortByTargetAmount}
	case models.SortByFundedAmount:
		return SortSpec{Field: "fundedAmount", Desc: desc, Applied: models.SortByFundedAmount}
	case models.SortByDurationMonths:
		return SortSpec{Field: "durationMonths", Desc: desc, Applied: models.SortByDurationMonths}
	case models.SortByProgress:
		// Known limitation: progress is a derived ratio, not a stored column
		return SortSpec{Field: "createdAt", Desc: true, Applied: models.SortByCreatedAt}
	default:
		return SortSpec{Field: "createdAt", Desc: true, Applied: models.SortByCreatedAt}
	}
}

// ToBSON renders the sort as a MongoDB sort document
func (s SortSpec) ToBSON() bson.D {
	order := 1
	if s.Desc {
		order = -1
	}
	return bson.D{{Key: s.Field, Value: order}}
}
