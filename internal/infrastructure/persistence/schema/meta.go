package schema

import "time"

// CurrentVersion is bumped whenever the tables change shape.
const CurrentVersion = "1"

const VersionKey = "schema_version"

// Meta records facts about the database itself, such as the schema version
// written by init-db.
type Meta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (Meta) TableName() string {
	return "schema_meta"
}
