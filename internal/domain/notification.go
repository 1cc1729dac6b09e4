package domain

// WebhookEventNewMessage 新邮件通知的事件类型
const WebhookEventNewMessage = "new_message"

// NotificationRequiredFields 新邮件通知中必须出现的字段
var NotificationRequiredFields = []string{"emailId", "messageId", "fromAddress", "subject", "receivedAt", "toAddress"}

// NewMessageEvent 服务商推送的新邮件通知
type NewMessageEvent struct {
	EmailID     string    `json:"emailId"`
	MessageID   string    `json:"messageId"`
	FromAddress string    `json:"fromAddress"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	HTML        string    `json:"html"`
	ReceivedAt  Timestamp `json:"receivedAt"`
	ToAddress   string    `json:"toAddress"`
}
