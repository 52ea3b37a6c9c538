package types

// AnalyticsEntry holds the counters for one UTC calendar day. Date is the
// primary key in YYYY-MM-DD form; counters only ever grow.
type AnalyticsEntry struct {
	Date            string `gorm:"primaryKey;column:date" json:"date"`
	SignUps         int    `gorm:"not null;default:0;column:sign_ups" json:"sign_ups"`
	FilamentCreated int    `gorm:"not null;default:0;column:filament_created" json:"filament_created"`
	LogsCreated     int    `gorm:"not null;default:0;column:logs_created" json:"logs_created"`
	BoxesCreated    int    `gorm:"not null;default:0;column:boxes_created" json:"boxes_created"`
}

func (AnalyticsEntry) TableName() string {
	return "analytics"
}

// AnalyticsDeltas names the counters a mutation may bump. Zero fields are
// left untouched.
type AnalyticsDeltas struct {
	SignUps         int
	FilamentCreated int
	LogsCreated     int
	BoxesCreated    int
}
