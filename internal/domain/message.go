package domain

// MessageSummary 邮件列表中的一条摘要
type MessageSummary struct {
	ID          string    `json:"id"`
	FromAddress string    `json:"from_address"`
	Subject     string    `json:"subject"`
	ReceivedAt  Timestamp `json:"received_at"`
}

// MessagePage 邮件列表的一页，顺序与上游一致
type MessagePage struct {
	Messages   []MessageSummary `json:"messages"`
	NextCursor *string          `json:"nextCursor"`
	Total      *int             `json:"total,omitempty"`
}

// Message 单封邮件详情
type Message struct {
	ID          string    `json:"id"`
	EmailID     string    `json:"emailId,omitempty"`
	FromAddress string    `json:"from_address"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	HTML        string    `json:"html"`
	ReceivedAt  Timestamp `json:"received_at"`
}
