package domain

// neverExpiresYear 上游用 9999-01-01 表示永久邮箱
const neverExpiresYear = 9999

// Mailbox 上游服务商拥有的临时邮箱，本服务只读
type Mailbox struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Email     string    `json:"email,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	ExpiresAt Timestamp `json:"expiresAt"`
}

// DisplayAddress 返回邮箱地址，兼容只返回 email 字段的上游
func (m Mailbox) DisplayAddress() string {
	if m.Address != "" {
		return m.Address
	}
	return m.Email
}

// NeverExpires 报告邮箱是否为永久邮箱
func (m Mailbox) NeverExpires() bool {
	return m.ExpiresAt.Year() >= neverExpiresYear
}

// MailboxPage 邮箱列表的一页，NextCursor 为 nil 表示没有更多
type MailboxPage struct {
	Mailboxes  []Mailbox `json:"emails"`
	NextCursor *string   `json:"nextCursor"`
	Total      *int      `json:"total,omitempty"`
}

// GenerateRequest 创建邮箱请求
//
// ExpiryTime 单位为毫秒，0 是上游约定的“永不过期”，不是立即过期。
type GenerateRequest struct {
	Name       string `json:"name,omitempty"`
	ExpiryTime int64  `json:"expiryTime"`
	Domain     string `json:"domain"`
}

// GeneratedMailbox 创建邮箱的返回结果
type GeneratedMailbox struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"createdAt"`
	ExpiresAt Timestamp `json:"expiresAt"`
}
