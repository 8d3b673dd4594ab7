package models

import "time"

type ListStatus string

const (
	StatusBucketList ListStatus = "bucketList"
	StatusVisited    ListStatus = "visited"
)

// UserActivityRecord is the persisted link between a user and an activity.
// A user holds at most one record per activity, keyed by RecordKey.
type UserActivityRecord struct {
	Activity  `bson:",inline"`
	UserID    string     `json:"userId" bson:"userId"`
	Status    ListStatus `json:"status" bson:"status"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
}

// RecordKey is the composite key "{userId}_{activityId}".
func RecordKey(userID, activityID string) string {
	return userID + "_" + activityID
}

// ListsSnapshot is the payload pushed to clients when a user's lists change.
type ListsSnapshot struct {
	Bucket  []Activity `json:"bucketList"`
	Visited []Activity `json:"visitedList"`
}
