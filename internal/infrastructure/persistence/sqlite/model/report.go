package model

type Report struct {
	ID             uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	PackageID      uint64  `gorm:"column:package_id;not null;index"`
	Package        Package `gorm:"foreignKey:PackageID;references:ID;constraint:OnDelete:RESTRICT"`
	SessionID      string  `gorm:"column:session_id;type:text;not null;index"`
	Begun          string  `gorm:"column:begun;type:text;not null"`
	Ended          string  `gorm:"column:ended;type:text;not null"`
	Outcome        string  `gorm:"column:outcome;type:text;not null;index"`
	DeliveryStatus string  `gorm:"column:delivery_status;type:text;not null"`
	Message        string  `gorm:"column:message;type:text;not null"`
	Report         string  `gorm:"column:report;type:text;not null"`
}

func (Report) TableName() string {
	return "reports"
}
