package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/pkg/log"
)

const (
	textUnknownCommand = "Произошла ошибка: неизвестная команда."
	textInternalError  = "Произошла внутренняя ошибка."
	textStoreError     = "Ошибка."
	textUnhandled      = "Используйте кнопки или команду /start."
	textEmptyCatalog   = "❌ База идиом пуста!"
	textEmptyDict      = "📖 Словарь пуст!"
)

// BotService 是会话状态机的入口：把一条入站事件变成一条回复。
type BotService interface {
	HandleEvent(ctx context.Context, ev model.Event) (model.Reply, error)
}

type botService struct {
	sessions   *SessionRegistry
	users      UserService
	idioms     IdiomService
	dictionary DictionaryService
	practice   PracticeService
	dialogue   DialogueService
	actions    ActionLogService
	maxTurns   int
}

// NewBotService 创建一个新的 BotService 实例。
func NewBotService(
	sessions *SessionRegistry,
	users UserService,
	idioms IdiomService,
	dictionary DictionaryService,
	practice PracticeService,
	dialogue DialogueService,
	actions ActionLogService,
	freeModeMaxTurns int,
) BotService {
	return &botService{
		sessions:   sessions,
		users:      users,
		idioms:     idioms,
		dictionary: dictionary,
		practice:   practice,
		dialogue:   dialogue,
		actions:    actions,
		maxTurns:   freeModeMaxTurns,
	}
}

// HandleEvent 同一用户的事件串行执行。业务错误都转换成给用户看的回复，
// 只有参数错误或等待会话时 ctx 被取消才返回 error。
func (s *botService) HandleEvent(ctx context.Context, ev model.Event) (model.Reply, error) {
	if strings.TrimSpace(ev.UserID) == "" {
		return model.Reply{}, fmt.Errorf("缺少用户 ID: %w", ErrValidation)
	}
	if ev.Kind != model.EventMenu && ev.Kind != model.EventText {
		return model.Reply{}, fmt.Errorf("未知的事件类型 %q: %w", ev.Kind, ErrValidation)
	}

	if err := s.users.Touch(ctx, ev); err != nil {
		log.Errorf("[BotService] 刷新用户档案失败, user=%s: %v", ev.UserID, err)
	}

	session, err := s.sessions.Acquire(ctx, ev.UserID)
	if err != nil {
		return model.Reply{}, err
	}
	defer s.sessions.Release(session)

	if ev.Kind == model.EventMenu {
		return s.handleMenu(ctx, session, strings.TrimSpace(ev.Data)), nil
	}
	return s.handleText(ctx, session, strings.TrimSpace(ev.Data)), nil
}

func (s *botService) handleMenu(ctx context.Context, session *Session, action string) model.Reply {
	userID := session.UserID()
	switch action {
	case ActionStart:
		s.actions.Record(ctx, userID, "command_start", nil)
	case ActionLog:
		s.actions.Record(ctx, userID, "command_log", nil)
	default:
		s.actions.Record(ctx, userID, "button_press", map[string]any{"callback_data": action})
	}

	session.SetState(stateAfterMenu(session.State(), action))

	switch action {
	case ActionStart, ActionBack:
		return mainMenuReply()
	case ActionLog:
		return s.showLogs(ctx, userID)
	case ActionIdiom:
		return s.idiomOfTheDay(ctx)
	case ActionTheme:
		return s.themes(ctx)
	case ActionPractice:
		return practiceMenuReply()
	case ActionDictionary, ActionBackToDictionary:
		return dictionaryMenuReply()
	case ActionFreeMode:
		session.SetState(StateFreeMode{Conversation: NewConversation(s.maxTurns)})
		s.actions.Record(ctx, userID, "free_mode_start", nil)
		return freeModeReply()
	case ActionSettings:
		return s.settings(ctx, userID)
	case ActionAddIdiom:
		session.SetState(StateAwaitingIdiomInput{})
		return plain("➕ Напиши идиому для добавления:", backDictionary)
	case ActionViewDictionary:
		return s.viewDictionary(ctx, userID)
	case ActionRepeatIdioms:
		return s.repeatIdiom(ctx, userID)
	case ActionSetTime:
		session.SetState(StateAwaitingTimeInput{})
		return plain("⏰ Укажи время для 'Идиомы дня' в ЧЧ:ММ (UTC):", backSettingsMenu)
	case ActionExitAskingMode:
		session.SetState(StateIdle{})
		return dictionaryMenuReply()
	case ActionExitFreeMode:
		session.SetState(StateIdle{})
		s.actions.Record(ctx, userID, "free_mode_exit_button", nil)
		return mainMenuReply()
	}

	switch {
	case strings.HasPrefix(action, PrefixTheme):
		return s.themedIdiom(ctx, strings.TrimPrefix(action, PrefixTheme))
	case strings.HasPrefix(action, PrefixPractice):
		return s.startPractice(ctx, session, PracticeKind(strings.TrimPrefix(action, PrefixPractice)))
	case strings.HasPrefix(action, PrefixConfirmAdd):
		return s.addToDictionary(ctx, userID, strings.TrimPrefix(action, PrefixConfirmAdd))
	case strings.HasPrefix(action, PrefixQuestion):
		idiom := strings.TrimPrefix(action, PrefixQuestion)
		if idiom == "" {
			break
		}
		session.SetState(StateAskingMode{Idiom: idiom})
		log.Infof("[BotService] 用户 %s 进入成语问答模式: %s", userID, idiom)
		return askingModeReply(idiom)
	case strings.HasPrefix(action, PrefixDelete):
		return confirmDeleteReply(strings.TrimPrefix(action, PrefixDelete))
	case strings.HasPrefix(action, PrefixConfirmDelete):
		return s.removeFromDictionary(ctx, userID, strings.TrimPrefix(action, PrefixConfirmDelete))
	}

	log.Warnf("[BotService] 未知的菜单动作 %q, user=%s", action, userID)
	return plain(textUnknownCommand, backMainMenu)
}

// handleText 按状态解释自由文本。退出指令在对应模式内优先于其他解释。
func (s *botService) handleText(ctx context.Context, session *Session, text string) model.Reply {
	userID := session.UserID()
	switch st := session.State().(type) {
	case StateAskingMode:
		if IsExitPhrase(text) {
			session.SetState(StateIdle{})
			s.actions.Record(ctx, userID, "asking_mode_exit_cmd", map[string]any{"idiom": st.Idiom})
			return plain("Вы вышли из режима вопросов по идиоме.", backDictionary)
		}
		return s.askAboutIdiom(ctx, userID, st.Idiom, text)

	case StateFreeMode:
		if IsExitPhrase(text) {
			session.SetState(StateIdle{})
			s.actions.Record(ctx, userID, "free_mode_exit_cmd", nil)
			return plain("Вы вышли из свободного режима.", backMainMenu)
		}
		return s.converse(ctx, userID, st.Conversation, text)

	case StateAwaitingIdiomInput:
		session.SetState(StateIdle{})
		s.actions.Record(ctx, userID, "add_idiom_input", map[string]any{"text": text})
		return s.addToDictionary(ctx, userID, text)

	case StateAwaitingTimeInput:
		session.SetState(StateIdle{})
		s.actions.Record(ctx, userID, "set_time_input", map[string]any{"text": text})
		return s.setDailyTime(ctx, userID, text)

	case StatePracticeAwaitingAnswer:
		session.SetState(StateIdle{})
		return s.gradeAnswer(ctx, userID, st.Task, text)
	}

	s.actions.Record(ctx, userID, "unhandled_message", map[string]any{"text": text})
	return plain(textUnhandled, nil)
}

func (s *botService) idiomOfTheDay(ctx context.Context) model.Reply {
	idiom, err := s.idioms.Random(ctx)
	if errors.Is(err, ErrNotFound) {
		return plain(textEmptyCatalog, backMainMenu)
	}
	if err != nil {
		return s.storeFailure("idiom", err, backMainMenu)
	}
	return idiomCardReply(idiom)
}

func (s *botService) themes(ctx context.Context) model.Reply {
	themes, err := s.idioms.Themes(ctx)
	if err != nil {
		return s.storeFailure("theme", err, backMainMenu)
	}
	if len(themes) == 0 {
		return plain("Ошибка: Темы идиом не загружены.", backMainMenu)
	}
	return themesReply(themes)
}

func (s *botService) themedIdiom(ctx context.Context, theme string) model.Reply {
	idiom, err := s.idioms.RandomByTheme(ctx, theme)
	if errors.Is(err, ErrNotFound) {
		return plain(fmt.Sprintf("❌ Идиом по теме '%s' не найдено!", capitalize(theme)), backThemesMenu)
	}
	if err != nil {
		return s.storeFailure("theme_selected", err, backMainMenu)
	}
	return themedCardReply(theme, idiom)
}

func (s *botService) startPractice(ctx context.Context, session *Session, kind PracticeKind) model.Reply {
	task, err := s.practice.NewTask(ctx, kind)
	switch {
	case errors.Is(err, ErrValidation):
		log.Warnf("[BotService] 未知的练习类型 %q, user=%s", kind, session.UserID())
		return plain(textUnknownCommand, backMainMenu)
	case errors.Is(err, ErrNotFound):
		return plain(textEmptyCatalog, backMainMenu)
	case err != nil:
		return s.storeFailure("practice_selected", err, backMainMenu)
	}
	session.SetState(StatePracticeAwaitingAnswer{Task: task})
	return practicePromptReply(task)
}

func (s *botService) gradeAnswer(ctx context.Context, userID string, task PracticeTask, answer string) model.Reply {
	s.actions.Record(ctx, userID, "practice_answer_"+string(task.Kind), map[string]any{"idiom": task.Idiom.Text, "answer": answer})

	result, err := s.practice.GradeAnswer(ctx, userID, task, answer)
	if errors.Is(err, ErrServiceUnavailable) {
		log.Error(fmt.Sprintf("[BotService] 批改失败, user=%s", userID), err)
		return plain("❌ Сервис проверки недоступен. Попробуйте позже.", backMainMenu)
	}
	if err != nil {
		return s.storeFailure("practice_grade", err, backMainMenu)
	}
	s.actions.Record(ctx, userID, "practice_result", map[string]any{"idiom": task.Idiom.Text, "correct": result.IsCorrect})
	return markdown(result.Text, backMainMenu)
}

func (s *botService) addToDictionary(ctx context.Context, userID, idiom string) model.Reply {
	idiom = strings.TrimSpace(idiom)
	added, err := s.dictionary.Add(ctx, userID, idiom)
	switch {
	case errors.Is(err, ErrValidation):
		return plain("❌ Вы не ввели идиому.", backDictionary)
	case errors.Is(err, ErrNotFound):
		return plain(fmt.Sprintf("🤔 Идиома '%s' не найдена в базе.", idiom), backDictionary)
	case err != nil:
		return s.storeFailure("dictionary_add", err, backDictionary)
	case !added:
		return plain(fmt.Sprintf("ℹ️ Идиома '%s' уже в словаре!", idiom), backDictionary)
	}
	s.actions.Record(ctx, userID, "dictionary_add", map[string]any{"idiom": idiom})
	return plain(fmt.Sprintf("✅ Идиома '%s' добавлена!", idiom), backDictionary)
}

func (s *botService) removeFromDictionary(ctx context.Context, userID, idiom string) model.Reply {
	err := s.dictionary.Remove(ctx, userID, idiom)
	if errors.Is(err, ErrNotFound) {
		return plain(fmt.Sprintf("❌ Идиома '%s' не найдена в словаре!", idiom), backDictionary)
	}
	if err != nil {
		return s.storeFailure("dictionary_delete", err, backDictionary)
	}
	s.actions.Record(ctx, userID, "dictionary_delete", map[string]any{"idiom": idiom})
	return plain(fmt.Sprintf("✅ Идиома '%s' удалена!", idiom), backDictionary)
}

func (s *botService) viewDictionary(ctx context.Context, userID string) model.Reply {
	items, err := s.dictionary.List(ctx, userID)
	if err != nil {
		return s.storeFailure("view_dictionary", err, backDictionary)
	}
	return dictionaryListReply(items)
}

func (s *botService) repeatIdiom(ctx context.Context, userID string) model.Reply {
	idiom, details, err := s.dictionary.Random(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return plain(textEmptyDict, backDictionary)
	}
	if err != nil {
		return s.storeFailure("repeat_idioms", err, backDictionary)
	}
	return repeatReply(idiom, details)
}

func (s *botService) settings(ctx context.Context, userID string) model.Reply {
	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		// 读取失败时按默认值展示
		log.Errorf("[BotService] 读取用户设置失败, user=%s: %v", userID, err)
		user = nil
	}
	return settingsReply(user)
}

func (s *botService) setDailyTime(ctx context.Context, userID, text string) model.Reply {
	hhmm, err := s.users.SetDailyTime(ctx, userID, text)
	if errors.Is(err, ErrValidation) {
		return plain("❌ Неверный формат! (ЧЧ:ММ)", backSettingsMenu)
	}
	if err != nil {
		log.Error(fmt.Sprintf("[BotService] 保存推送时间失败, user=%s", userID), err)
		return plain("Ошибка сохранения.", backMainMenu)
	}
	return plain(fmt.Sprintf("✅ Время рассылки: %s UTC", hhmm), backSettingsMenu)
}

func (s *botService) askAboutIdiom(ctx context.Context, userID, idiom, question string) model.Reply {
	s.actions.Record(ctx, userID, "asking_mode_question", map[string]any{"idiom": idiom, "question": question})
	answer, err := s.dialogue.Ask(ctx, idiom, question)
	if err != nil {
		log.Error(fmt.Sprintf("[BotService] 成语问答失败, user=%s", userID), err)
		return plain("❌ Не удалось получить ответ. Попробуйте задать вопрос ещё раз.", exitAskingMenu)
	}
	return plain(answer, exitAskingMenu)
}

func (s *botService) converse(ctx context.Context, userID string, conv *Conversation, text string) model.Reply {
	var (
		reply string
		err   error
	)
	if isRetryPhrase(text) && conv.PendingUserTurn() {
		s.actions.Record(ctx, userID, "free_mode_retry", nil)
		reply, err = s.dialogue.Retry(ctx, conv)
	} else {
		s.actions.Record(ctx, userID, "free_mode_question", map[string]any{"question": text})
		reply, err = s.dialogue.Converse(ctx, conv, text)
	}
	if err != nil {
		log.Error(fmt.Sprintf("[BotService] 自由对话失败, user=%s", userID), err)
		return plain("❌ Ошибка при генерации ответа. Напишите 'повтори', чтобы отправить вопрос ещё раз.", exitFreeModeMenu)
	}
	return plain(reply, exitFreeModeMenu)
}

func (s *botService) showLogs(ctx context.Context, userID string) model.Reply {
	entries, err := s.actions.Recent(ctx, userID, DefaultLogLimit)
	if err != nil {
		log.Error(fmt.Sprintf("[BotService] 读取行为日志失败, user=%s", userID), err)
		return plain("Ошибка получения логов.", nil)
	}
	return logsReply(entries)
}

// storeFailure 记录存储错误并返回通用提示。
func (s *botService) storeFailure(op string, err error, menu [][]model.Button) model.Reply {
	log.Errorw("[BotService] 处理失败", "op", op, "error", err)
	if errors.Is(err, ErrStore) {
		return plain(textStoreError, menu)
	}
	return plain(textInternalError, menu)
}
