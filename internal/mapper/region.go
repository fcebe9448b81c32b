package mapper

import "strings"

// regions is checked in order; the first name contained wins.
var regions = []string{
	"서울", "부산", "대구", "인천", "광주", "대전", "울산", "세종",
	"경기", "강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

// CityFromInstitution extracts a region name from an institution name.
func CityFromInstitution(name *string) *string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil
	}
	for _, r := range regions {
		if strings.Contains(*name, r) {
			city := r
			return &city
		}
	}
	return nil
}
