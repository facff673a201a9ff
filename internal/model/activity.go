package model

import "time"

// Activity is one entry of the bounded audit log.
type Activity struct {
	Action    string    `json:"action"`
	Device    string    `json:"device"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}
