package service

import (
	"context"
	"sync"

	"chengyu-bot-go/internal/model"
)

// State 是会话状态机的当前状态，只能是本包定义的六种之一。
type State interface {
	isState()
}

// StateIdle 没有任何待处理的输入。
type StateIdle struct{}

// StateAwaitingIdiomInput 等待用户输入要加入词典的成语。
type StateAwaitingIdiomInput struct{}

// StateAwaitingTimeInput 等待用户输入 HH:MM 格式的推送时间。
type StateAwaitingTimeInput struct{}

// StatePracticeAwaitingAnswer 持有一道待批改的练习题。
type StatePracticeAwaitingAnswer struct {
	Task PracticeTask
}

// StateAskingMode 针对单个成语的问答，不保留历史。
type StateAskingMode struct {
	Idiom string
}

// StateFreeMode 自由对话，携带完整的对话历史。
type StateFreeMode struct {
	Conversation *Conversation
}

func (StateIdle) isState()                   {}
func (StateAwaitingIdiomInput) isState()     {}
func (StateAwaitingTimeInput) isState()      {}
func (StatePracticeAwaitingAnswer) isState() {}
func (StateAskingMode) isState()             {}
func (StateFreeMode) isState()               {}

// PracticeKind 练习题类型
type PracticeKind string

const (
	PracticeTranslate PracticeKind = "translate"
	PracticeExample   PracticeKind = "example"
)

// PracticeTask 是一道练习题的快照。
type PracticeTask struct {
	Kind  PracticeKind
	Idiom model.Idiom
}

// Session 是单个用户的会话。State/SetState 只能在 Acquire 与 Release 之间调用。
type Session struct {
	userID string
	lock   chan struct{}
	refs   int
	state  State
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) State() State { return s.state }

func (s *Session) SetState(state State) {
	if state == nil {
		state = StateIdle{}
	}
	s.state = state
}

// SessionRegistry 保存进程内所有用户的会话，重启即丢失。
// 同一用户的消息串行处理，不同用户之间互不阻塞。
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry 创建一个空的会话注册表。
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Acquire 获取用户会话的独占访问权，ctx 取消时放弃等待。
func (r *SessionRegistry) Acquire(ctx context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if !ok {
		s = &Session{userID: userID, lock: make(chan struct{}, 1), state: StateIdle{}}
		r.sessions[userID] = s
	}
	s.refs++
	r.mu.Unlock()

	select {
	case s.lock <- struct{}{}:
		return s, nil
	case <-ctx.Done():
		r.mu.Lock()
		r.unref(s)
		r.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Release 归还会话。空闲且无人等待的会话会被回收。
func (r *SessionRegistry) Release(s *Session) {
	r.mu.Lock()
	r.unref(s)
	r.mu.Unlock()
	<-s.lock
}

// unref 需要持有 r.mu。refs 归零时没有其他持有者，读取 state 是安全的。
func (r *SessionRegistry) unref(s *Session) {
	s.refs--
	if s.refs > 0 {
		return
	}
	if _, idle := s.state.(StateIdle); idle {
		delete(r.sessions, s.userID)
	}
}

// Peek 返回用户当前状态，用于调试接口和测试。
func (r *SessionRegistry) Peek(ctx context.Context, userID string) (State, error) {
	s, err := r.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer r.Release(s)
	return s.State(), nil
}

// Len 返回当前驻留的会话数。
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StateName 返回状态的稳定名称，用于日志和接口输出。
func StateName(state State) string {
	switch state.(type) {
	case StateAwaitingIdiomInput:
		return "awaiting_idiom_input"
	case StateAwaitingTimeInput:
		return "awaiting_time_input"
	case StatePracticeAwaitingAnswer:
		return "practice_awaiting_answer"
	case StateAskingMode:
		return "asking_mode"
	case StateFreeMode:
		return "free_mode"
	default:
		return "idle"
	}
}

// stateAfterMenu 计算菜单选择之后的状态：除两个退出动作保留对应模式外，一律回到 Idle。
func stateAfterMenu(current State, action string) State {
	switch current.(type) {
	case StateAskingMode:
		if action == ActionExitAskingMode {
			return current
		}
	case StateFreeMode:
		if action == ActionExitFreeMode {
			return current
		}
	}
	return StateIdle{}
}
