package models

// Placeholder values used when catalog or list data is incomplete.
const (
	PlaceholderName       = "Unnamed Activity"
	PlaceholderCity       = "Unknown City"
	PlaceholderCountry    = "Unknown Country"
	PlaceholderImage      = "https://via.placeholder.com/180"
	PlaceholderAttraction = "Unknown Attraction"
	PlaceholderCategory   = "Uncategorized"
	PlaceholderHours      = "Opening hours not available"
	DefaultCurrency       = "USD"
)

// Activity is a catalog entry with its attraction fields denormalized in.
type Activity struct {
	ActivityID          string   `json:"activity_id" bson:"activity_id"`
	AttractionID        string   `json:"attraction_id,omitempty" bson:"attraction_id,omitempty"`
	ActivityName        string   `json:"activity_name,omitempty" bson:"activity_name,omitempty"`
	ActivityFullName    string   `json:"activity_full_name" bson:"activity_full_name"`
	ActivityDescription string   `json:"activity_description,omitempty" bson:"activity_description,omitempty"`
	Keywords            []string `json:"activities_keywords" bson:"activities_keywords"`
	MinDuration         float64  `json:"min_duration,omitempty" bson:"min_duration,omitempty"`
	MaxDuration         float64  `json:"max_duration,omitempty" bson:"max_duration,omitempty"`
	Price               float64  `json:"price,omitempty" bson:"price,omitempty"`
	Currency            string   `json:"currency,omitempty" bson:"currency,omitempty"`

	AttractionName        string  `json:"attraction_name,omitempty" bson:"attraction_name,omitempty"`
	AttractionCategory    string  `json:"attraction_category,omitempty" bson:"attraction_category,omitempty"`
	AttractionSubcategory string  `json:"attraction_subcategory,omitempty" bson:"attraction_subcategory,omitempty"`
	LocationCity          string  `json:"location_city" bson:"location_city"`
	LocationCountry       string  `json:"location_country" bson:"location_country"`
	Latitude              float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude             float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
	OpeningHour           string  `json:"opening_hour,omitempty" bson:"opening_hour,omitempty"`
	UniqueFeatureOne      string  `json:"unique_feature_one,omitempty" bson:"unique_feature_one,omitempty"`
	UniqueFeatureTwo      string  `json:"unique_feature_two,omitempty" bson:"unique_feature_two,omitempty"`
	UniqueFeatureThree    string  `json:"unique_feature_three,omitempty" bson:"unique_feature_three,omitempty"`
	SecretTip             string  `json:"secret_tip,omitempty" bson:"secret_tip,omitempty"`

	ImageURL string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Rating   int    `json:"rating,omitempty" bson:"rating,omitempty"`
	Note     string `json:"note,omitempty" bson:"note,omitempty"`
}

// DisplayName is the full name, falling back to the short name and then the placeholder.
func (a Activity) DisplayName() string {
	switch {
	case a.ActivityFullName != "":
		return a.ActivityFullName
	case a.ActivityName != "":
		return a.ActivityName
	default:
		return PlaceholderName
	}
}

// WithPlaceholders fills the display fields a list entry must always carry.
func (a Activity) WithPlaceholders() Activity {
	a.ActivityFullName = a.DisplayName()
	if a.LocationCity == "" {
		a.LocationCity = PlaceholderCity
	}
	if a.LocationCountry == "" {
		a.LocationCountry = PlaceholderCountry
	}
	if a.ImageURL == "" {
		a.ImageURL = PlaceholderImage
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	return a
}

type Attraction struct {
	AttractionID          string  `json:"attraction_id" bson:"attraction_id"`
	AttractionName        string  `json:"attraction_name" bson:"attraction_name"`
	AttractionCategory    string  `json:"attraction_category" bson:"attraction_category"`
	AttractionSubcategory string  `json:"attraction_subcategory,omitempty" bson:"attraction_subcategory,omitempty"`
	LocationCity          string  `json:"location_city" bson:"location_city"`
	LocationCountry       string  `json:"location_country" bson:"location_country"`
	Latitude              float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude             float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
	OpeningHour           string  `json:"opening_hour" bson:"opening_hour"`
	ImageURL              string  `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}
