package model

// EventKind 区分菜单选择与自由文本两种输入。
type EventKind string

const (
	EventMenu EventKind = "menu"
	EventText EventKind = "text"
)

// Event 是传输层交给会话状态机的一条入站消息。
type Event struct {
	UserID    string    `json:"userId"`
	Channel   string    `json:"channel"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Kind      EventKind `json:"kind"`
	Data      string    `json:"data"`
}

// Format 指示回复文本的渲染方式。
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
)

// Button 是菜单中的一个可选项。
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Reply 是交还给传输层的出站内容：文本和下一步可选的菜单。
type Reply struct {
	Text   string     `json:"text"`
	Format Format     `json:"format"`
	Menu   [][]Button `json:"menu,omitempty"`
}
