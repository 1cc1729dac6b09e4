// Package wizard 实现通过按钮逐步创建邮箱的向导
package wizard

import (
	"strconv"
	"strings"

	"mailrelay/backend/internal/domain"
)

// 按钮回调数据
const (
	DataRandomPrefix = "prefix_random"
	DataCustomPrefix = "prefix_custom"
	DataCancel       = "cancel_creation"
	DataConfirm      = "confirm_yes"
	DataDecline      = "confirm_no"

	durationDataPrefix = "duration_"
	domainDataPrefix   = "domain_"
)

// ActionKind 用户操作类型
type ActionKind int

const (
	ActionRandomPrefix ActionKind = iota + 1
	ActionCustomPrefix
	ActionDuration
	ActionDomain
	ActionConfirm
	ActionDecline
	ActionCancel
	ActionText
)

// Action 一次用户操作，按钮点击或自由文本
type Action struct {
	Kind        ActionKind
	Duration    domain.DurationCode
	DomainIndex int
	Text        string
}

// IsCallback 报告回调数据是否属于创建向导
func IsCallback(data string) bool {
	switch data {
	case DataRandomPrefix, DataCustomPrefix, DataCancel, DataConfirm, DataDecline:
		return true
	}
	return strings.HasPrefix(data, durationDataPrefix) || strings.HasPrefix(data, domainDataPrefix)
}

// ParseCallback 解析按钮回调数据，无法识别时返回 false
func ParseCallback(data string) (Action, bool) {
	switch data {
	case DataRandomPrefix:
		return Action{Kind: ActionRandomPrefix}, true
	case DataCustomPrefix:
		return Action{Kind: ActionCustomPrefix}, true
	case DataCancel:
		return Action{Kind: ActionCancel}, true
	case DataConfirm:
		return Action{Kind: ActionConfirm}, true
	case DataDecline:
		return Action{Kind: ActionDecline}, true
	}

	if code, ok := strings.CutPrefix(data, durationDataPrefix); ok {
		d, valid := domain.ParseDurationCode(code)
		if !valid {
			return Action{}, false
		}
		return Action{Kind: ActionDuration, Duration: d}, true
	}

	if raw, ok := strings.CutPrefix(data, domainDataPrefix); ok {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 {
			return Action{}, false
		}
		return Action{Kind: ActionDomain, DomainIndex: idx}, true
	}

	return Action{}, false
}

// DurationData 返回有效期按钮的回调数据
func DurationData(code domain.DurationCode) string {
	return durationDataPrefix + string(code)
}

// DomainData 返回域名按钮的回调数据
func DomainData(idx int) string {
	return domainDataPrefix + strconv.Itoa(idx)
}

// Outcome 一次转移的结果
//
// Done 为 true 表示流程结束、状态应被清除；Generate 非 nil 时需要调用上游创建邮箱。
// 否则 Next 是要持久化的新状态。
type Outcome struct {
	Next     domain.WizardState
	Generate *domain.GenerateRequest
	Done     bool
}

// Transition 计算状态转移，不产生副作用
//
// 操作与当前步骤不匹配时返回 domain.ErrInvalidSelection；
// 自定义前缀格式错误时返回 domain.ErrInvalidPrefix，状态保持不变。
func Transition(state domain.WizardState, action Action, domains []string) (Outcome, error) {
	if action.Kind == ActionCancel {
		return Outcome{Done: true}, nil
	}

	switch s := state.(type) {
	case domain.PrefixStep:
		switch action.Kind {
		case ActionRandomPrefix:
			return Outcome{Next: domain.DurationStep{}}, nil
		case ActionCustomPrefix:
			return Outcome{Next: domain.CustomPrefixStep{}}, nil
		}

	case domain.CustomPrefixStep:
		if action.Kind == ActionText {
			prefix := strings.TrimSpace(action.Text)
			if err := domain.ValidateMailboxPrefix(prefix); err != nil {
				return Outcome{}, err
			}
			return Outcome{Next: domain.DurationStep{Prefix: prefix}}, nil
		}

	case domain.DurationStep:
		if action.Kind == ActionDuration {
			return Outcome{Next: domain.DomainStep{Prefix: s.Prefix, Duration: action.Duration}}, nil
		}

	case domain.DomainStep:
		if action.Kind == ActionDomain && action.DomainIndex >= 0 && action.DomainIndex < len(domains) {
			return Outcome{Next: domain.ConfirmStep{
				Prefix:   s.Prefix,
				Duration: s.Duration,
				Domain:   domains[action.DomainIndex],
			}}, nil
		}

	case domain.ConfirmStep:
		switch action.Kind {
		case ActionConfirm:
			req := s.GenerateRequest()
			return Outcome{Generate: &req, Done: true}, nil
		case ActionDecline:
			return Outcome{Done: true}, nil
		}
	}

	return Outcome{}, domain.ErrInvalidSelection
}
