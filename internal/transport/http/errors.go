package httptransport

// 响应文本
const (
	// Telegram Webhook
	MsgMisroutedNotification = "此路径用于 Telegram Bot 更新。邮件 Webhook 应 POST 到 /<USER_ID>。"
	MsgInvalidSecret         = "无效的 Webhook 密钥。"
	MsgInvalidUpdate         = "无效的 Telegram 更新。"

	// 新邮件通知
	MsgInvalidEvent         = "无效的 X-Webhook-Event 请求头。"
	MsgInvalidContentType   = "无效的 Content-Type 请求头。"
	MsgInvalidPayload       = "无效的 JSON Payload。"
	MsgMissingField         = "Payload 中缺少必需字段: %s"
	MsgMissingBody          = "Payload 中缺少邮件内容 (content/html) 或主题。"
	MsgPayloadTooLarge      = "请求体过大。"
	MsgNotificationOK       = "Webhook 处理成功。"
	MsgNotificationAccepted = "Webhook 已确认，但 Telegram 通知失败。"
	MsgNotificationFailed   = "处理 Webhook 时发生内部服务器错误。"

	// 网页查看
	MsgViewStoreUnavailable = "内部服务器错误：存储服务不可用。"
	MsgViewNoCredential     = "授权失败：无法获取查看此邮件所需的凭据。"
	MsgViewNotFound         = "邮件未找到，可能已被删除或邮箱已过期。"
	MsgViewInvalidLink      = "链接无效。"

	// 别名兼容 API
	MsgMissingAPIKey     = "Unauthorized: Missing or invalid API Key."
	MsgEmptyAPIKey       = "Unauthorized: Empty API Key."
	MsgInvalidJSON       = "Bad Request: Invalid JSON payload."
	MsgInvalidDomain     = "Bad Request: Missing or invalid 'domain'."
	MsgAliasCreateFailed = "通过上游创建别名失败: %s"

	MsgEndpointNotFound = "未找到端点。"
)
