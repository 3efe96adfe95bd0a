package feedback

import "time"

const (
	CategoryCommunication = "communication"
	CategoryDelivery      = "delivery"
	CategoryCollaboration = "collaboration"

	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
)

var Categories = []string{CategoryCommunication, CategoryDelivery, CategoryCollaboration}

// Feedback is immutable once stored.
type Feedback struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Rating     int       `json:"rating"`
	Categories []string  `json:"categories"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type Summary struct {
	UserID        int64          `json:"user_id"`
	Count         int            `json:"count"`
	AverageRating float64        `json:"average_rating"`
	Categories    map[string]int `json:"categories"`
}
