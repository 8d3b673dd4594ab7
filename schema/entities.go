package schema

import (
	"wanderlist/db"
	"wanderlist/models"
	"wanderlist/store"
)

var Activity = Schema{
	Entity: "activity",
	Fields: []Field{
		{Name: "activity_id", Kind: String, Required: true},
		{Name: "attraction_id", Kind: String},
		{Name: "activity_name", Kind: String},
		{Name: "activity_full_name", Kind: String, Default: models.PlaceholderName},
		{Name: "activity_description", Kind: String},
		{Name: "activities_keywords", Kind: Strings, Default: []string{}},
		{Name: "min_duration", Kind: Number},
		{Name: "max_duration", Kind: Number},
		{Name: "price", Kind: Number},
		{Name: "currency", Kind: String, Default: models.DefaultCurrency},
		{Name: "attraction_name", Kind: String},
		{Name: "attraction_category", Kind: String},
		{Name: "attraction_subcategory", Kind: String},
		{Name: "location_city", Kind: String},
		{Name: "location_country", Kind: String},
		{Name: "latitude", Kind: Number},
		{Name: "longitude", Kind: Number},
		{Name: "opening_hour", Kind: String},
		{Name: "unique_feature_one", Kind: String},
		{Name: "unique_feature_two", Kind: String},
		{Name: "unique_feature_three", Kind: String},
		{Name: "secret_tip", Kind: String},
		{Name: "imageUrl", Kind: String},
		{Name: "rating", Kind: Number},
		{Name: "note", Kind: String},
	},
}

var Attraction = Schema{
	Entity: "attraction",
	Fields: []Field{
		{Name: "attraction_id", Kind: String, Required: true},
		{Name: "attraction_name", Kind: String, Default: models.PlaceholderAttraction},
		{Name: "attraction_category", Kind: String, Default: models.PlaceholderCategory},
		{Name: "attraction_subcategory", Kind: String},
		{Name: "location_city", Kind: String, Default: models.PlaceholderCity},
		{Name: "location_country", Kind: String, Default: models.PlaceholderCountry},
		{Name: "latitude", Kind: Number},
		{Name: "longitude", Kind: Number},
		{Name: "opening_hour", Kind: String, Default: models.PlaceholderHours},
		{Name: "imageUrl", Kind: String},
	},
}

// UserActivity extends Activity with the list membership fields.
var UserActivity = Schema{
	Entity: "user activity",
	Fields: append([]Field{
		{Name: "userId", Kind: String, Required: true},
		{Name: "status", Kind: String, Required: true},
		{Name: "timestamp", Kind: Time},
	}, Activity.Fields...),
}

var UserPreferences = Schema{
	Entity: "user preferences",
	Fields: []Field{
		{Name: "userId", Kind: String, Required: true},
		{Name: "displayName", Kind: String},
		{Name: "profileIcon", Kind: String},
		{Name: "preferences", Kind: Strings, Default: []string{}},
		{Name: "updatedAt", Kind: Time},
	},
}

var User = Schema{
	Entity: "user",
	Fields: []Field{
		{Name: "userId", Kind: String, Required: true},
		{Name: "email", Kind: String},
		{Name: "password_hash", Kind: String},
		{Name: "displayName", Kind: String},
		{Name: "provider", Kind: String},
		{Name: "providerSubject", Kind: String},
		{Name: "createdAt", Kind: Time},
	},
}

var Category = Schema{
	Entity: "category",
	Fields: []Field{
		{Name: "category_id", Kind: String, Required: true},
		{Name: "core_category", Kind: String, Required: true},
		{Name: "description", Kind: String, Required: true},
	},
}

var Subcategory = Schema{
	Entity: "subcategory",
	Fields: []Field{
		{Name: "subcategory_id", Kind: String, Required: true},
		{Name: "subcategories", Kind: String, Required: true},
		{Name: "core_category_id", Kind: String, Required: true},
		{Name: "sub_description", Kind: String, Required: true},
	},
}

var Tag = Schema{
	Entity: "tag",
	Fields: []Field{
		{Name: "tag_id", Kind: String, Required: true},
		{Name: "tag_type", Kind: String, Required: true},
		{Name: "tag_value", Kind: String, Required: true},
		{Name: "tag_description", Kind: String, Required: true},
	},
}

// For returns the schema registered for a collection.
func For(collection string) (Schema, bool) {
	s, ok := byCollection[collection]
	return s, ok
}

var byCollection = map[string]Schema{
	db.Activities:      Activity,
	db.Attractions:     Attraction,
	db.UserActivities:  UserActivity,
	db.UserPreferences: UserPreferences,
	db.Categories:      Category,
	db.Subcategories:   Subcategory,
	db.Tags:            Tag,
}

func DecodeActivity(doc store.Document) (models.Activity, error) {
	return Decode[models.Activity](Activity, doc)
}

func DecodeAttraction(doc store.Document) (models.Attraction, error) {
	return Decode[models.Attraction](Attraction, doc)
}

func DecodeUserActivity(doc store.Document) (models.UserActivityRecord, error) {
	return Decode[models.UserActivityRecord](UserActivity, doc)
}

func DecodeUserPreferences(doc store.Document) (models.UserPreferences, error) {
	return Decode[models.UserPreferences](UserPreferences, doc)
}
