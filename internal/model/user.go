package model

import "time"

// 用户来源的传输渠道，决定每日推送走哪条通道。
const (
	ChannelTelegram = "telegram"
	ChannelWeb      = "web"
)

// DefaultDailyTime 是新用户的每日推送时间（UTC）。
const DefaultDailyTime = "09:00"

// User 代表一个聊天用户的档案，首次交互时创建，之后不会被删除。
type User struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Channel         string    `gorm:"type:varchar(16);not null;default:'telegram'" json:"channel"`
	Username        string    `gorm:"type:varchar(255)" json:"username"`
	FirstName       string    `gorm:"type:varchar(255)" json:"firstName"`
	LastName        string    `gorm:"type:varchar(255)" json:"lastName"`
	DailyTime       string    `gorm:"type:char(5);index;not null;default:'09:00'" json:"dailyTime"`
	PracticeCorrect int64     `gorm:"not null;default:0" json:"practiceCorrect"`
	PracticeTotal   int64     `gorm:"not null;default:0" json:"practiceTotal"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Accuracy 返回练习正确率（百分比）。
func (u *User) Accuracy() float64 {
	if u.PracticeTotal == 0 {
		return 0
	}
	return float64(u.PracticeCorrect) / float64(u.PracticeTotal) * 100
}

// DictionaryEntry 是个人词典中的一项，(user_id, idiom) 唯一，按 ID 保持加入顺序。
type DictionaryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_dictionary_user_idiom" json:"userId"`
	Idiom     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_dictionary_user_idiom" json:"idiom"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (DictionaryEntry) TableName() string {
	return "dictionary_entries"
}
