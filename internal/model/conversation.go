package model

// Role 是对话中一轮发言的角色。
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatTurn 代表自由对话模式中的一轮发言，只保存在内存中。
type ChatTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
