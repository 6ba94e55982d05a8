package service

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode"

	"chengyu-bot-go/internal/model"
)

// 菜单动作标识。带下划线后缀的是前缀动作，后面拼接成语或主题。
const (
	ActionStart            = "start"
	ActionLog              = "log"
	ActionBack             = "back"
	ActionIdiom            = "idiom"
	ActionTheme            = "theme"
	ActionPractice         = "practice"
	ActionDictionary       = "dictionary"
	ActionFreeMode         = "free_mode"
	ActionSettings         = "settings"
	ActionAddIdiom         = "add_idiom"
	ActionViewDictionary   = "view_dictionary"
	ActionRepeatIdioms     = "repeat_idioms"
	ActionSetTime          = "set_time"
	ActionExitAskingMode   = "exit_asking_mode"
	ActionExitFreeMode     = "exit_free_mode"
	ActionBackToDictionary = "back_to_dictionary"

	PrefixTheme         = "theme_"
	PrefixPractice      = "practice_"
	PrefixConfirmAdd    = "confirm_add_"
	PrefixQuestion      = "question_"
	PrefixDelete        = "delete_"
	PrefixConfirmDelete = "confirm_delete_"
)

// exitPhrases 在提问模式和自由模式下都表示退出，比较时忽略大小写。
var exitPhrases = map[string]struct{}{
	"exit": {}, "stop": {}, "quit": {}, "/stop": {},
	"выйти": {}, "выход": {}, "хватит": {}, "/выход": {},
}

// retryPhrases 在自由模式下重发上一条未得到回复的消息。
var retryPhrases = map[string]struct{}{
	"повтори": {}, "повторить": {}, "retry": {}, "/retry": {},
}

// IsExitPhrase 判断文本是否为退出指令。
func IsExitPhrase(text string) bool {
	_, ok := exitPhrases[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func isRetryPhrase(text string) bool {
	_, ok := retryPhrases[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func btn(label, action string) model.Button {
	return model.Button{Label: label, Action: action}
}

// column 把按钮排成每行一个。
func column(buttons ...model.Button) [][]model.Button {
	rows := make([][]model.Button, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []model.Button{b})
	}
	return rows
}

func plain(text string, menu [][]model.Button) model.Reply {
	return model.Reply{Text: text, Format: model.FormatPlain, Menu: menu}
}

func markdown(text string, menu [][]model.Button) model.Reply {
	return model.Reply{Text: text, Format: model.FormatMarkdown, Menu: menu}
}

var (
	backMainMenu     = column(btn("⬅️ Главное меню", ActionBack))
	backDictionary   = column(btn("⬅️ Назад в словарь", ActionBackToDictionary))
	backSettingsMenu = column(btn("⬅️ Назад в настройки", ActionSettings))
	backThemesMenu   = column(btn("⬅️ Назад к темам", ActionTheme))
	exitAskingMenu   = column(btn("🚪 Выйти из режима вопросов", ActionExitAskingMode))
	exitFreeModeMenu = column(btn("🚪 Выйти из свободного режима", ActionExitFreeMode))
)

func mainMenuReply() model.Reply {
	return markdown("🇨🇳 *Бот для изучения китайских идиом*\nВыбери режим:", column(
		btn("📚 Идиома дня", ActionIdiom),
		btn("🏷 Тематические идиомы", ActionTheme),
		btn("🎓 Интерактивная практика", ActionPractice),
		btn("📖 Личный словарь", ActionDictionary),
		btn("❓ Свободный режим", ActionFreeMode),
		btn("⚙️ Настройки", ActionSettings),
	))
}

func dictionaryMenuReply() model.Reply {
	return plain("📖 Личный словарь:", column(
		btn("➕ Добавить идиому", ActionAddIdiom),
		btn("📋 Просмотреть словарь", ActionViewDictionary),
		btn("🔄 Повторить идиомы", ActionRepeatIdioms),
		btn("⬅️ Назад", ActionBack),
	))
}

func practiceMenuReply() model.Reply {
	return plain("🎓 Выбери тип задания:", column(
		btn("Перевод", PrefixPractice+string(PracticeTranslate)),
		btn("Пример предложения", PrefixPractice+string(PracticeExample)),
		btn("⬅️ Назад", ActionBack),
	))
}

func themesReply(themes []string) model.Reply {
	buttons := make([]model.Button, 0, len(themes)+1)
	for _, t := range themes {
		buttons = append(buttons, btn(capitalize(t), PrefixTheme+t))
	}
	buttons = append(buttons, btn("⬅️ Назад", ActionBack))
	return plain("🏷 Выбери тему:", column(buttons...))
}

// FormatIdiom 渲染成语卡片正文。
func FormatIdiom(idiom *model.Idiom) string {
	if idiom == nil {
		return "Идиома не найдена."
	}
	return fmt.Sprintf("🔤 *Идиома*: %s\n🈷️ *Пиньинь*: %s\n🌐 *Перевод*: %s\n💡 *Значение*: %s\n📝 *Пример*: %s",
		idiom.Text, idiom.Pinyin, idiom.Translation, idiom.Meaning, idiom.Example)
}

func idiomCardReply(idiom *model.Idiom) model.Reply {
	return markdown(FormatIdiom(idiom), column(
		btn("❓ Задать вопрос", PrefixQuestion+idiom.Text),
		btn("➕ Добавить в словарь", PrefixConfirmAdd+idiom.Text),
		btn("⬅️ Назад", ActionBack),
	))
}

func themedCardReply(theme string, idiom *model.Idiom) model.Reply {
	text := fmt.Sprintf("🏷 *Идиома по теме '%s'*:\n\n", capitalize(theme)) + FormatIdiom(idiom)
	return markdown(text, column(
		btn(fmt.Sprintf("➕ '%s' в словарь", idiom.Text), PrefixConfirmAdd+idiom.Text),
		btn(fmt.Sprintf("❓ Вопрос про '%s'", idiom.Text), PrefixQuestion+idiom.Text),
		btn("🔄 Другая идиома по теме", PrefixTheme+theme),
		btn("⬅️ Назад к темам", ActionTheme),
		btn("⬅️ Главное меню", ActionBack),
	))
}

// DailyIdiomReply 是每日推送的消息，所有收件人共用同一份。
func DailyIdiomReply(idiom *model.Idiom, now time.Time) model.Reply {
	text := fmt.Sprintf("📚 *Идиома дня* (%s)\n\n", now.UTC().Format("02.01.2006")) + FormatIdiom(idiom)
	return markdown(text, column(
		btn("➕ Добавить в словарь", PrefixConfirmAdd+idiom.Text),
		btn("❓ Задать вопрос", PrefixQuestion+idiom.Text),
	))
}

func practicePromptReply(task PracticeTask) model.Reply {
	text := fmt.Sprintf("🎓 *Напиши пример предложения с идиомой*: %s", task.Idiom.Text)
	if task.Kind == PracticeTranslate {
		text = fmt.Sprintf("🎓 *Переведи идиому*: %s (%s)", task.Idiom.Text, task.Idiom.Pinyin)
	}
	return markdown(text, backMainMenu)
}

func dictionaryListReply(items []DictionaryItem) model.Reply {
	if len(items) == 0 {
		return plain("📖 Словарь пуст!", backDictionary)
	}
	var sb strings.Builder
	sb.WriteString("📖 *Твой словарь*:\n\n")
	rows := make([][]model.Button, 0, len(items)+1)
	for _, item := range items {
		translation := item.Translation
		if translation == "" {
			translation = "?"
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", item.Idiom, translation)
		rows = append(rows, []model.Button{
			btn(fmt.Sprintf("❓ Вопрос про '%s'", item.Idiom), PrefixQuestion+item.Idiom),
			btn(fmt.Sprintf("🗑 Удалить '%s'", item.Idiom), PrefixDelete+item.Idiom),
		})
	}
	rows = append(rows, backDictionary[0])
	return markdown(sb.String(), rows)
}

func repeatReply(idiom string, details *model.Idiom) model.Reply {
	text := fmt.Sprintf("🔄 *Повторяем*:\n%s\n_(Детали не найдены)_", idiom)
	if details != nil {
		text = "🔄 *Повторяем идиому*:\n\n" + FormatIdiom(details)
	}
	return markdown(text, column(
		btn("❓ Задать вопрос", PrefixQuestion+idiom),
		btn("🗑 Удалить", PrefixDelete+idiom),
		btn("➡️ Следующая", ActionRepeatIdioms),
		btn("⬅️ Назад в словарь", ActionBackToDictionary),
	))
}

func settingsReply(user *model.User) model.Reply {
	dailyTime := model.DefaultDailyTime
	var correct, total int64
	accuracy := 0.0
	if user != nil {
		if user.DailyTime != "" {
			dailyTime = user.DailyTime
		}
		correct, total, accuracy = user.PracticeCorrect, user.PracticeTotal, user.Accuracy()
	}
	text := fmt.Sprintf("⚙️ *Настройки*\n⏰ Время рассылки: %s (UTC)\n📊 Статистика практики: %d/%d (%.1f%%)\n"+
		"_Если бот был недоступен в это время, идиома за этот день не приходит._",
		dailyTime, correct, total, accuracy)
	return markdown(text, column(
		btn(fmt.Sprintf("⏰ Задать время рассылки (%s UTC)", dailyTime), ActionSetTime),
		btn("⬅️ Назад", ActionBack),
	))
}

func askingModeReply(idiom string) model.Reply {
	return markdown(fmt.Sprintf("❓ Вы вошли в режим вопросов по идиоме: *%s*.\n"+
		"Напишите свой вопрос. Чтобы выйти, нажмите кнопку ниже или напишите 'выйти'.", idiom), exitAskingMenu)
}

func freeModeReply() model.Reply {
	return plain("❓ Вы вошли в свободный режим.\n"+
		"Задавайте вопросы о китайском языке (идиомы, слова, грамматика...). "+
		"Чтобы выйти, нажмите кнопку ниже или напишите 'выйти'.", exitFreeModeMenu)
}

func confirmDeleteReply(idiom string) model.Reply {
	return plain(fmt.Sprintf("🗑 Удалить идиому '%s' из словаря?", idiom), [][]model.Button{{
		btn("✅ Да, удалить", PrefixConfirmDelete+idiom),
		btn("❌ Отмена", ActionBackToDictionary),
	}})
}

// logsReply 渲染行为日志，最新的在前。
func logsReply(entries []model.ActionLogDTO) model.Reply {
	if len(entries) == 0 {
		return plain("Нет записей в логе для вас.", nil)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *Последние %d ваших действий* (новейшие сверху):\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&sb, "`%s`: **%s**", e.Timestamp, e.ActionType)
		if len(e.Details) > 0 {
			keys := slices.Sorted(maps.Keys(e.Details))
			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, fmt.Sprintf("`%s`=`%v`", k, e.Details[k]))
			}
			sb.WriteString(" | " + strings.Join(pairs, ", "))
		}
		sb.WriteString("\n")
	}
	return markdown(sb.String(), nil)
}

// capitalize 与菜单展示一致：首字母大写，其余小写。
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
