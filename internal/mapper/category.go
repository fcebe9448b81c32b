package mapper

import (
	"strings"

	"archive.alpha.io/archive/internal/domain"
)

// CategoryRule maps genre text containing any of Keywords to Category.
type CategoryRule struct {
	Keywords []string
	Category domain.Category
}

// CategoryRules resolves free-text genre fields to a Category. Rules are
// tried in order and the first match wins. Each provider keeps its own
// fallbacks; they are not unified.
type CategoryRules struct {
	Rules []CategoryRule
	// MissingDefault applies when the genre field is absent or blank.
	MissingDefault domain.Category
	// UnmatchedDefault applies when no rule matches.
	UnmatchedDefault domain.Category
}

// Resolve always returns a valid category.
func (r CategoryRules) Resolve(genre *string) domain.Category {
	if genre == nil || strings.TrimSpace(*genre) == "" {
		return orOther(r.MissingDefault)
	}
	g := strings.ToLower(*genre)
	for _, rule := range r.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(g, strings.ToLower(kw)) {
				return orOther(rule.Category)
			}
		}
	}
	return orOther(r.UnmatchedDefault)
}

func orOther(c domain.Category) domain.Category {
	if c.Valid() {
		return c
	}
	return domain.CategoryOther
}

// CultureCategoryRules are the realm rules of the culture info portal.
func CultureCategoryRules() CategoryRules {
	return CategoryRules{
		Rules: []CategoryRule{
			{Keywords: []string{"연극"}, Category: domain.CategoryTheater},
			{Keywords: []string{"뮤지컬"}, Category: domain.CategoryMusical},
			{Keywords: []string{"전시"}, Category: domain.CategoryExhibition},
			{Keywords: []string{"콘서트", "음악"}, Category: domain.CategoryConcert},
			{Keywords: []string{"축제"}, Category: domain.CategoryFestival},
			{Keywords: []string{"영화"}, Category: domain.CategoryMovie},
		},
		MissingDefault:   domain.CategoryOther,
		UnmatchedDefault: domain.CategoryOther,
	}
}

// CulturalCategoryRules are the genre rules of the cultural event portal.
// Most of its records are exhibitions, so a missing genre means EXHIBITION.
func CulturalCategoryRules() CategoryRules {
	return CategoryRules{
		Rules: []CategoryRule{
			{Keywords: []string{"전시"}, Category: domain.CategoryExhibition},
			{Keywords: []string{"연극"}, Category: domain.CategoryTheater},
			{Keywords: []string{"뮤지컬"}, Category: domain.CategoryMusical},
			{Keywords: []string{"콘서트", "음악"}, Category: domain.CategoryConcert},
			{Keywords: []string{"축제"}, Category: domain.CategoryFestival},
			{Keywords: []string{"영화"}, Category: domain.CategoryMovie},
			{Keywords: []string{"워크샵"}, Category: domain.CategoryWorkshop},
		},
		MissingDefault:   domain.CategoryExhibition,
		UnmatchedDefault: domain.CategoryOther,
	}
}
