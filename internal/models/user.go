package models

import "time"

// AnonymousUserMap reverses an anonymized student id to an account. The
// anonymized id is what the submission store sees; the Casdoor name is what
// the identity provider knows the user by.
type AnonymousUserMap struct {
	AnonymizedID string    `json:"anonymized_id" gorm:"primaryKey;size:255"`
	CasdoorName  string    `json:"casdoor_name" gorm:"size:255;not null"`
	Username     string    `json:"username" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (AnonymousUserMap) TableName() string {
	return "anonymous_user_map"
}
