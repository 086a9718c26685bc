package model

type Package struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	UUID      string `gorm:"column:uuid;type:text;not null;uniqueIndex"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (Package) TableName() string {
	return "packages"
}
