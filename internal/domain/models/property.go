package models

// PropertyAttributes is the typed form of the property questionnaire.
// Every answer is required; a nil field means the client left it out.
type PropertyAttributes struct {
	SqFeet    *float64 `json:"sq_feet" validate:"required,gte=100,lte=5000"`
	Beds      *float64 `json:"beds" validate:"required,gte=1,lte=5"`
	Baths     *float64 `json:"baths" validate:"required,gte=1,lte=4"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`

	TypeTownhouse *bool `json:"type_townhouse" validate:"required"`
	TypeBasement  *bool `json:"type_basement" validate:"required"`
	TypeCondoUnit *bool `json:"type_condo_unit" validate:"required"`
	TypeMainFloor *bool `json:"type_main_floor" validate:"required"`

	FurnishingNegotiable  *bool `json:"furnishing_negotiable" validate:"required"`
	FurnishingUnfurnished *bool `json:"furnishing_unfurnished" validate:"required"`

	SmokingNonSmoking     *bool `json:"smoking_non_smoking" validate:"required"`
	SmokingSmokeFreeBuild *bool `json:"smoking_smoke_free_building" validate:"required"`

	CatsAllowed *bool `json:"cats_allowed" validate:"required"`
	DogsAllowed *bool `json:"dogs_allowed" validate:"required"`

	LeaseSixMonths  *bool `json:"lease_6_months" validate:"required"`
	LeaseLongTerm   *bool `json:"lease_long_term" validate:"required"`
	LeaseNegotiable *bool `json:"lease_negotiable" validate:"required"`
	LeaseShortTerm  *bool `json:"lease_short_term" validate:"required"`
}

// ToAttributes names the present values the way the one-hot encoder names
// its columns. Absent fields are left out so the builder reports them.
func (p PropertyAttributes) ToAttributes() map[string]float64 {
	out := make(map[string]float64, 19)
	num := func(name string, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	flag := func(name string, v *bool) {
		if v == nil {
			return
		}
		out[name] = 0
		if *v {
			out[name] = 1
		}
	}

	num("sq_feet", p.SqFeet)
	num("beds", p.Beds)
	num("baths", p.Baths)
	num("latitude", p.Latitude)
	num("longitude", p.Longitude)
	flag("type_Townhouse", p.TypeTownhouse)
	flag("type_Basement", p.TypeBasement)
	flag("type_Condo Unit", p.TypeCondoUnit)
	flag("type_Main Floor", p.TypeMainFloor)
	flag("furnishing_Negotiable", p.FurnishingNegotiable)
	flag("furnishing_Unfurnished", p.FurnishingUnfurnished)
	flag("smoking_Non-Smoking", p.SmokingNonSmoking)
	flag("smoking_Smoke Free Building", p.SmokingSmokeFreeBuild)
	flag("cats_True", p.CatsAllowed)
	flag("dogs_True", p.DogsAllowed)
	flag("lease_term_6 months", p.LeaseSixMonths)
	flag("lease_term_Long Term", p.LeaseLongTerm)
	flag("lease_term_Negotiable", p.LeaseNegotiable)
	flag("lease_term_Short Term", p.LeaseShortTerm)
	return out
}
