// Package bot 处理 Telegram 更新：命令、创建向导按钮与自由文本，并负责发送新邮件通知
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/extractor"
	"mailrelay/backend/internal/monitoring"
	"mailrelay/backend/internal/upstream"
	"mailrelay/backend/internal/wizard"
)

// Sender 发送消息与应答回调的能力，*tgbotapi.BotAPI 满足该接口
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Mailboxes 命令需要的上游接口，*upstream.Client 满足该接口
type Mailboxes interface {
	ListMailboxes(ctx context.Context, credential, cursor string) upstream.Result[domain.MailboxPage]
	ListMessages(ctx context.Context, credential, mailboxID, cursor string) upstream.Result[domain.MessagePage]
	GetMessage(ctx context.Context, credential, mailboxID, messageID string) upstream.Result[domain.Message]
	DeleteMailbox(ctx context.Context, credential, mailboxID string) upstream.Result[struct{}]
	ListDomains(ctx context.Context, credential string) upstream.Result[[]string]
}

// CodeExtractor 验证码提取能力，*extractor.Extractor 满足该接口
type CodeExtractor interface {
	Enabled() bool
	Extract(ctx context.Context, subject, body string) extractor.Result
}

// Dependencies 机器人依赖项
type Dependencies struct {
	Sender    Sender
	Store     domain.StateStore
	Mailboxes Mailboxes
	Extractor CodeExtractor
	Wizard    *wizard.Wizard
	PublicURL string         // 不带结尾斜杠，留空时不生成链接
	Domains   []string       // 配置的域名，上游不可用时作为 /list 的结果
	Location  *time.Location // 时间显示时区
	Model     string         // 帮助信息中展示的模型名称
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
}

// Handler Telegram 更新处理器
type Handler struct {
	sender    Sender
	store     domain.StateStore
	mailboxes Mailboxes
	codes     CodeExtractor
	wizard    *wizard.Wizard
	publicURL string
	domains   []string
	loc       *time.Location
	model     string
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// New 创建更新处理器
func New(deps Dependencies) *Handler {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		sender:    deps.Sender,
		store:     deps.Store,
		mailboxes: deps.Mailboxes,
		codes:     deps.Extractor,
		wizard:    deps.Wizard,
		publicURL: deps.PublicURL,
		domains:   deps.Domains,
		loc:       loc,
		model:     deps.Model,
		metrics:   deps.Metrics,
		log:       log.Named("bot"),
	}
}

// HandleUpdate 分发一次 Telegram 更新
//
// 返回的错误只表示回复发送失败，业务错误已经以消息形式告知用户。
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		h.metrics.RecordBotUpdate("callback")
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		h.metrics.RecordBotUpdate("command")
		return h.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		h.metrics.RecordBotUpdate("text")
		return h.handleText(ctx, update.Message)
	default:
		h.metrics.RecordBotUpdate("ignored")
		return nil
	}
}

func (h *Handler) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	reply, handled := h.wizard.HandleText(ctx, msg.From.ID, msg.Text)
	if !handled {
		return nil
	}
	return h.render(msg.Chat.ID, 0, "", reply)
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.From == nil {
		return h.answer(q.ID, msgUnknownUser, false)
	}
	if !wizard.IsCallback(q.Data) {
		return h.answer(q.ID, wizard.MsgInvalidSelection, false)
	}

	chatID, messageID := q.From.ID, 0
	if q.Message != nil && q.Message.Chat != nil {
		chatID, messageID = q.Message.Chat.ID, q.Message.MessageID
	}

	reply := h.wizard.HandleCallback(ctx, q.From.ID, q.Data)
	return h.render(chatID, messageID, q.ID, reply)
}

// render 把向导回复发送出去
//
// 回调总会被应答，否则客户端按钮会一直转圈。Edit 为 true 且存在原消息时编辑原消息，否则发送新消息。
func (h *Handler) render(chatID int64, messageID int, callbackID string, reply wizard.Reply) error {
	if callbackID != "" {
		if err := h.answer(callbackID, reply.Notice, reply.Alert); err != nil {
			h.log.Warn("failed to answer callback", zap.String("callback_id", callbackID), zap.Error(err))
		}
	}
	if reply.Text == "" {
		return nil
	}

	if reply.Edit && messageID != 0 {
		var edit tgbotapi.EditMessageTextConfig
		if len(reply.Keyboard) > 0 {
			edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, reply.Text, keyboard(reply.Keyboard))
		} else {
			edit = tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
		}
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		_, err := h.sender.Send(edit)
		return err
	}

	msg := htmlMessage(chatID, reply.Text)
	if len(reply.Keyboard) > 0 {
		msg.ReplyMarkup = keyboard(reply.Keyboard)
	}
	_, err := h.sender.Send(msg)
	return err
}

func (h *Handler) answer(callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	_, err := h.sender.Request(cb)
	return err
}

// send 以 HTML 模式发送一条消息
func (h *Handler) send(chatID int64, text string) error {
	_, err := h.sender.Send(htmlMessage(chatID, text))
	if err != nil {
		h.log.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return err
}

func htmlMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return msg
}

func keyboard(rows [][]wizard.Button) tgbotapi.InlineKeyboardMarkup {
	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		markup = append(markup, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(markup...)
}
