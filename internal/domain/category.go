package domain

import "strings"

// Category is the closed set of event categories.
type Category string

const (
	CategoryMusical    Category = "MUSICAL"
	CategoryTheater    Category = "THEATER"
	CategoryMovie      Category = "MOVIE"
	CategoryExhibition Category = "EXHIBITION"
	CategoryCooking    Category = "COOKING"
	CategoryVolunteer  Category = "VOLUNTEER"
	CategoryReading    Category = "READING"
	CategoryConcert    Category = "CONCERT"
	CategoryFestival   Category = "FESTIVAL"
	CategoryWorkshop   Category = "WORKSHOP"
	CategorySports     Category = "SPORTS"
	CategoryTravel     Category = "TRAVEL"
	CategoryOutdoor    Category = "OUTDOOR"
	CategoryHobby      Category = "HOBBY"
	CategoryStudy      Category = "STUDY"
	CategoryNetworking Category = "NETWORKING"
	CategoryOther      Category = "OTHER"
)

var categoryDisplayNames = map[Category]string{
	CategoryMusical:    "뮤지컬",
	CategoryTheater:    "연극",
	CategoryMovie:      "영화",
	CategoryExhibition: "전시",
	CategoryCooking:    "요리",
	CategoryVolunteer:  "봉사",
	CategoryReading:    "독서",
	CategoryConcert:    "콘서트",
	CategoryFestival:   "축제",
	CategoryWorkshop:   "워크샵",
	CategorySports:     "스포츠",
	CategoryTravel:     "여행",
	CategoryOutdoor:    "야외활동",
	CategoryHobby:      "취미활동",
	CategoryStudy:      "스터디",
	CategoryNetworking: "네트워킹",
	CategoryOther:      "기타",
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	_, ok := categoryDisplayNames[c]
	return ok
}

// DisplayName returns the user-facing label.
func (c Category) DisplayName() string {
	return categoryDisplayNames[c]
}

// ParseCategory accepts an enum name in any case.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Categories returns every category.
func Categories() []Category {
	return []Category{
		CategoryMusical, CategoryTheater, CategoryMovie, CategoryExhibition,
		CategoryCooking, CategoryVolunteer, CategoryReading, CategoryConcert,
		CategoryFestival, CategoryWorkshop, CategorySports, CategoryTravel,
		CategoryOutdoor, CategoryHobby, CategoryStudy, CategoryNetworking,
		CategoryOther,
	}
}
