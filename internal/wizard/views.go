package wizard

import (
	"fmt"
	"strings"

	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/format"
)

// 用户可见文本
const (
	MsgStoreUnavailable = "抱歉，内部存储服务暂时不可用，无法处理此命令。"
	MsgNeedCredential   = "❌ 请先使用 /key 命令设置您的 API Key。"
	MsgExpired          = "创建流程已过期，请重新使用 /add 命令。"
	MsgInvalidSelection = "无效的选择"
	MsgGenericFailure   = "❌ 处理过程中发生错误，请重新使用 /add 命令开始创建。"
	MsgNothingToCancel  = "您当前没有进行中的邮箱创建流程。"
	MsgCancelled        = "❌ 已取消邮箱创建。"
	MsgInvalidPrefix    = "❌ 前缀格式无效：只能包含字母、数字、下划线和连字符，长度 1-20 位。请重新输入，或发送 /cancel 取消。"
	MsgCreating         = "⏳ 正在创建邮箱..."
)

// Button 行内键盘按钮
type Button struct {
	Text string
	Data string
}

// Reply 向导对一次交互的回复
//
// Edit 为 true 时编辑承载按钮的原消息，否则发送新消息。
// Notice 是按钮回调的提示文本，Alert 控制是否以弹窗显示。
type Reply struct {
	Text     string
	Keyboard [][]Button
	Edit     bool
	Notice   string
	Alert    bool
}

func cancelRow() []Button {
	return []Button{{Text: "❌ 取消", Data: DataCancel}}
}

func prefixView() Reply {
	return Reply{
		Text: "📧 <b>创建新邮箱</b>\n\n<b>第 1 步：</b>选择邮箱前缀",
		Keyboard: [][]Button{
			{{Text: "🎲 随机前缀", Data: DataRandomPrefix}, {Text: "✏️ 自定义前缀", Data: DataCustomPrefix}},
			cancelRow(),
		},
	}
}

func customPrefixView() Reply {
	return Reply{
		Text:     "✏️ 请直接发送自定义前缀。\n\n允许字母、数字、下划线和连字符，长度 1-20 位。",
		Keyboard: [][]Button{cancelRow()},
	}
}

func prefixLabel(prefix string) string {
	if prefix == "" {
		return "随机"
	}
	return "<code>" + format.Escape(prefix) + "</code>"
}

func durationView(s domain.DurationStep) Reply {
	rows := make([][]Button, 0, 3)
	codes := domain.DurationCodes
	for i := 0; i < len(codes); i += 2 {
		row := []Button{{Text: codes[i].Label(), Data: DurationData(codes[i])}}
		if i+1 < len(codes) {
			row = append(row, Button{Text: codes[i+1].Label(), Data: DurationData(codes[i+1])})
		}
		rows = append(rows, row)
	}
	rows = append(rows, cancelRow())

	return Reply{
		Text:     fmt.Sprintf("📧 <b>创建新邮箱</b>\n\n前缀: %s\n\n<b>第 2 步：</b>选择有效期", prefixLabel(s.Prefix)),
		Keyboard: rows,
	}
}

func domainView(s domain.DomainStep, domains []string) Reply {
	rows := make([][]Button, 0, len(domains)/2+2)
	for i := 0; i < len(domains); i += 2 {
		row := []Button{{Text: domains[i], Data: DomainData(i)}}
		if i+1 < len(domains) {
			row = append(row, Button{Text: domains[i+1], Data: DomainData(i + 1)})
		}
		rows = append(rows, row)
	}
	rows = append(rows, cancelRow())

	return Reply{
		Text: fmt.Sprintf("📧 <b>创建新邮箱</b>\n\n前缀: %s\n有效期: %s\n\n<b>第 3 步：</b>选择域名",
			prefixLabel(s.Prefix), s.Duration.Label()),
		Keyboard: rows,
	}
}

func confirmView(s domain.ConfirmStep) Reply {
	return Reply{
		Text: fmt.Sprintf("📧 <b>请确认邮箱信息</b>\n\n前缀: %s\n有效期: %s\n域名: <code>%s</code>",
			prefixLabel(s.Prefix), s.Duration.Label(), format.Escape(s.Domain)),
		Keyboard: [][]Button{{
			{Text: "✅ 确认创建", Data: DataConfirm},
			{Text: "❌ 取消", Data: DataDecline},
		}},
	}
}

// stateView 返回进入某个状态后展示的消息
func stateView(state domain.WizardState, domains []string) Reply {
	switch s := state.(type) {
	case domain.CustomPrefixStep:
		return customPrefixView()
	case domain.DurationStep:
		return durationView(s)
	case domain.DomainStep:
		return domainView(s, domains)
	case domain.ConfirmStep:
		return confirmView(s)
	default:
		return prefixView()
	}
}

func createdView(mb domain.GeneratedMailbox, req domain.GenerateRequest) Reply {
	var b strings.Builder
	b.WriteString("✅ <b>邮箱创建成功！</b>\n\n")
	fmt.Fprintf(&b, "📧 地址: <code>%s</code>\n", format.Escape(mb.Email))
	if mb.ID != "" {
		fmt.Fprintf(&b, "🆔 ID: <code>%s</code>\n", format.Escape(mb.ID))
	}
	fmt.Fprintf(&b, "⏰ 有效期: %s", durationLabelForExpiry(req.ExpiryTime))
	return Reply{Text: b.String()}
}

func durationLabelForExpiry(ms int64) string {
	for _, code := range domain.DurationCodes {
		if code.ExpiryMillis() == ms {
			return code.Label()
		}
	}
	return fmt.Sprintf("%d 毫秒", ms)
}

func failedView(message string) Reply {
	return Reply{Text: "❌ 创建邮箱失败: " + format.Escape(message)}
}
