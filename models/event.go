package models

// Event is the only persisted record. Field names match the JSON wire format.
type Event struct {
	ID          int64    `json:"id" bson:"id"`
	EventName   string   `json:"eventName" bson:"eventName"`
	Date        string   `json:"date" bson:"date"`
	Location    string   `json:"location" bson:"location"`
	Description string   `json:"description" bson:"description"`
	Tags        []string `json:"tags" bson:"tags"`
	UserID      string   `json:"userId" bson:"userId"`
	CreatedAt   string   `json:"createdAt" bson:"createdAt"`
}

// HasTag reports whether tag is one of the event's tags.
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SameSlot reports whether two events collide on name, date and owner.
func (e Event) SameSlot(eventName, date, userID string) bool {
	return e.EventName == eventName && e.Date == date && e.UserID == userID
}
