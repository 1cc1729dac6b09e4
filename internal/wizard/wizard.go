package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/monitoring"
	"mailrelay/backend/internal/upstream"
)

// Generator 创建邮箱的上游能力，*upstream.Client 满足该接口
type Generator interface {
	GenerateMailbox(ctx context.Context, credential string, req domain.GenerateRequest) upstream.Result[domain.GeneratedMailbox]
}

// Wizard 创建向导，状态保存在 StateStore 中，自身不持有跨请求的可变状态
type Wizard struct {
	store     domain.StateStore
	generator Generator
	domains   []string
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// New 创建向导，domains 为域名按钮的顺序
func New(store domain.StateStore, generator Generator, domains []string, metrics *monitoring.Metrics, log *zap.Logger) *Wizard {
	return &Wizard{
		store:     store,
		generator: generator,
		domains:   domains,
		metrics:   metrics,
		log:       log.Named("wizard"),
	}
}

// Start 开始新的创建流程，已有的流程会被丢弃
func (w *Wizard) Start(ctx context.Context, userID int64) Reply {
	if _, err := w.store.GetCredential(ctx, userID); err != nil {
		return w.credentialErrorReply(userID, err)
	}

	if err := w.store.ClearWizardState(ctx, userID); err != nil {
		return w.storeErrorReply(userID, err)
	}
	if err := w.store.SaveWizardState(ctx, userID, domain.PrefixStep{}); err != nil {
		return w.storeErrorReply(userID, err)
	}

	w.metrics.RecordWizardEvent("started")
	return prefixView()
}

// Cancel 取消进行中的流程；没有流程时报告无事可做，不视为错误
func (w *Wizard) Cancel(ctx context.Context, userID int64) Reply {
	if _, err := w.store.GetWizardState(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Reply{Text: MsgNothingToCancel}
		}
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return w.storeErrorReply(userID, err)
		}
		// 损坏的状态同样可以取消
	}

	if err := w.store.ClearWizardState(ctx, userID); err != nil {
		return w.storeErrorReply(userID, err)
	}
	w.metrics.RecordWizardEvent("cancelled")
	return Reply{Text: MsgCancelled}
}

// HandleCallback 处理向导按钮回调
func (w *Wizard) HandleCallback(ctx context.Context, userID int64, data string) Reply {
	action, ok := ParseCallback(data)
	if !ok {
		w.metrics.RecordWizardEvent("invalid")
		return Reply{Notice: MsgInvalidSelection}
	}

	if action.Kind == ActionCancel {
		if err := w.store.ClearWizardState(ctx, userID); err != nil {
			return w.storeErrorReply(userID, err)
		}
		w.metrics.RecordWizardEvent("cancelled")
		return Reply{Text: MsgCancelled, Edit: true, Notice: "已取消"}
	}

	return w.advance(ctx, userID, action, true)
}

// HandleText 处理自由文本；只有在等待自定义前缀时才消费该消息
func (w *Wizard) HandleText(ctx context.Context, userID int64, text string) (Reply, bool) {
	state, err := w.store.GetWizardState(ctx, userID)
	if err != nil {
		return Reply{}, false
	}
	if _, waiting := state.(domain.CustomPrefixStep); !waiting {
		return Reply{}, false
	}
	return w.advance(ctx, userID, Action{Kind: ActionText, Text: text}, false), true
}

// advance 读取状态、执行转移并持久化结果
//
// 转移过程中出现意外错误或 panic 时清除状态并回复通用错误，避免用户卡在损坏的步骤。
func (w *Wizard) advance(ctx context.Context, userID int64, action Action, fromCallback bool) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("wizard transition panicked", zap.Int64("user_id", userID), zap.Any("panic", r), zap.Stack("stack"))
			reply = w.fail(ctx, userID, fmt.Errorf("panic: %v", r))
		}
	}()

	state, err := w.store.GetWizardState(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		w.metrics.RecordWizardEvent("expired")
		return Reply{Text: MsgExpired, Edit: fromCallback, Notice: MsgExpired, Alert: true}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return w.storeErrorReply(userID, err)
	case err != nil:
		return w.fail(ctx, userID, err)
	}

	credential, err := w.store.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = w.store.ClearWizardState(ctx, userID)
		}
		return w.credentialErrorReply(userID, err)
	}

	outcome, err := Transition(state, action, w.domains)
	switch {
	case errors.Is(err, domain.ErrInvalidPrefix):
		return Reply{Text: MsgInvalidPrefix}
	case errors.Is(err, domain.ErrInvalidSelection):
		w.metrics.RecordWizardEvent("invalid")
		return Reply{Notice: MsgInvalidSelection}
	case err != nil:
		return w.fail(ctx, userID, err)
	}

	if outcome.Done {
		if err := w.store.ClearWizardState(ctx, userID); err != nil {
			return w.fail(ctx, userID, err)
		}
		if outcome.Generate == nil {
			w.metrics.RecordWizardEvent("cancelled")
			return Reply{Text: MsgCancelled, Edit: fromCallback, Notice: "已取消"}
		}
		done := w.generate(ctx, userID, credential, *outcome.Generate)
		done.Edit = fromCallback
		return done
	}

	if err := w.store.SaveWizardState(ctx, userID, outcome.Next); err != nil {
		return w.fail(ctx, userID, err)
	}

	w.metrics.RecordWizardEvent("advanced")
	next := stateView(outcome.Next, w.domains)
	next.Edit = fromCallback
	return next
}

func (w *Wizard) generate(ctx context.Context, userID int64, credential string, req domain.GenerateRequest) Reply {
	res := w.generator.GenerateMailbox(ctx, credential, req)
	if !res.OK() {
		w.metrics.RecordWizardEvent("generate_failed")
		w.log.Warn("mailbox generation failed", zap.Int64("user_id", userID), zap.Int("status", res.Status()))
		return failedView(res.Err.Message)
	}

	w.metrics.RecordWizardEvent("completed")
	w.log.Info("mailbox created", zap.Int64("user_id", userID), zap.String("domain", req.Domain))
	return createdView(res.Data, req)
}

// QuickCreate 单条命令创建邮箱: /add <域名> [前缀] [1h|1d|3d|perm]
//
// 参数顺序不限；省略域名时使用第一个配置域名，省略有效期时为 1 天，省略前缀时随机。
func (w *Wizard) QuickCreate(ctx context.Context, userID int64, args string) Reply {
	credential, err := w.store.GetCredential(ctx, userID)
	if err != nil {
		return w.credentialErrorReply(userID, err)
	}

	req, err := parseQuickArgs(strings.Fields(args), w.domains)
	if err != nil {
		return Reply{Text: "❌ " + err.Error()}
	}

	// 开始新的创建时丢弃进行中的向导
	_ = w.store.ClearWizardState(ctx, userID)
	return w.generate(ctx, userID, credential, req)
}

func parseQuickArgs(fields []string, domains []string) (domain.GenerateRequest, error) {
	req := domain.GenerateRequest{ExpiryTime: domain.DurationOneDay.ExpiryMillis()}
	var domainSet, prefixSet, durationSet bool

	for _, field := range fields {
		if code, ok := domain.ParseDurationCode(strings.ToLower(field)); ok && !durationSet {
			// 0 表示永不过期
			req.ExpiryTime = code.ExpiryMillis()
			durationSet = true
			continue
		}
		if d, ok := matchDomain(field, domains); ok && !domainSet {
			req.Domain = d
			domainSet = true
			continue
		}
		if prefixSet {
			return req, fmt.Errorf("无法识别的参数: %s", field)
		}
		if err := domain.ValidateMailboxPrefix(field); err != nil {
			if strings.Contains(field, ".") {
				return req, fmt.Errorf("不支持的域名: %s，可用域名: %s", field, strings.Join(domains, ", "))
			}
			return req, fmt.Errorf("前缀格式无效: %s", field)
		}
		req.Name = field
		prefixSet = true
	}

	if !domainSet {
		req.Domain = domains[0]
	}
	return req, nil
}

func matchDomain(field string, domains []string) (string, bool) {
	field = strings.ToLower(strings.TrimPrefix(field, "@"))
	for _, d := range domains {
		if d == field {
			return d, true
		}
	}
	return "", false
}

// fail 清除状态并回复通用错误
func (w *Wizard) fail(ctx context.Context, userID int64, cause error) Reply {
	w.log.Error("wizard step failed, clearing state", zap.Int64("user_id", userID), zap.Error(cause))
	w.metrics.RecordWizardEvent("failed")
	if err := w.store.ClearWizardState(ctx, userID); err != nil {
		w.log.Warn("failed to clear wizard state", zap.Int64("user_id", userID), zap.Error(err))
	}
	return Reply{Text: MsgGenericFailure, Edit: true, Notice: "处理失败"}
}

func (w *Wizard) storeErrorReply(userID int64, err error) Reply {
	w.log.Error("state store error", zap.Int64("user_id", userID), zap.Error(err))
	return Reply{Text: MsgStoreUnavailable, Notice: MsgStoreUnavailable, Alert: true}
}

func (w *Wizard) credentialErrorReply(userID int64, err error) Reply {
	if errors.Is(err, domain.ErrNotFound) {
		return Reply{Text: MsgNeedCredential, Notice: MsgNeedCredential, Alert: true}
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return w.storeErrorReply(userID, err)
	}
	w.log.Error("failed to read credential", zap.Int64("user_id", userID), zap.Error(err))
	return Reply{Text: MsgGenericFailure, Notice: "处理失败"}
}
