// Package model 包含了应用的数据模型定义。
package model

import "time"

// Idiom 是成语库中的一条记录，以成语文本为唯一标识。
type Idiom struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Theme       string    `gorm:"type:varchar(64);index;not null" json:"theme"`
	Text        string    `gorm:"column:idiom;type:varchar(64);uniqueIndex;not null" json:"idiom"`
	Pinyin      string    `gorm:"type:varchar(255)" json:"pinyin"`
	Translation string    `gorm:"type:text" json:"translation"`
	Meaning     string    `gorm:"type:text" json:"meaning"`
	Example     string    `gorm:"type:text" json:"example"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Idiom) TableName() string {
	return "idioms"
}
