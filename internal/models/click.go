package models

import "time"

// Click is one row of the raw click log. Aggregated counters live on Link;
// this table only keeps the context of each resolve for later inspection.
type Click struct {
	ID uint `gorm:"primaryKey"`

	// LinkID references the resolved link. No foreign key: the log outlives
	// deleted links.
	LinkID string `gorm:"size:36;index"`

	Timestamp time.Time `gorm:"index"`

	// Region is the bucket the click was attributed to, "Unknown" included.
	Region string `gorm:"size:64"`

	UserAgent string `gorm:"size:255"`
	Referer   string `gorm:"size:255"`

	// IPAddress fits both IPv4 and IPv6.
	IPAddress string `gorm:"size:50"`
}

// ClickEvent is the lightweight event handed from the redirect path to the
// click workers over a channel.
type ClickEvent struct {
	LinkID    string
	Region    string
	Timestamp time.Time
	UserAgent string
	Referer   string
	IPAddress string
}
