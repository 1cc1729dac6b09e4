package domain

import "fmt"

// WizardStep 创建向导的步骤
type WizardStep string

const (
	StepPrefixChoice WizardStep = "prefix"
	StepCustomPrefix WizardStep = "custom_prefix"
	StepDuration     WizardStep = "duration"
	StepDomain       WizardStep = "domain"
	StepConfirm      WizardStep = "confirm"
)

// DurationCode 向导中可选的有效期
type DurationCode string

const (
	DurationOneHour   DurationCode = "1h"
	DurationOneDay    DurationCode = "1d"
	DurationThreeDays DurationCode = "3d"
	DurationPermanent DurationCode = "perm"
)

// DurationCodes 按展示顺序列出全部有效期
var DurationCodes = []DurationCode{DurationOneHour, DurationOneDay, DurationThreeDays, DurationPermanent}

var durationMillis = map[DurationCode]int64{
	DurationOneHour:   3_600_000,
	DurationOneDay:    86_400_000,
	DurationThreeDays: 259_200_000,
	// 0 是上游“永不过期”的约定值
	DurationPermanent: 0,
}

var durationLabels = map[DurationCode]string{
	DurationOneHour:   "1小时",
	DurationOneDay:    "1天",
	DurationThreeDays: "3天",
	DurationPermanent: "永久",
}

// ParseDurationCode 校验有效期代码
func ParseDurationCode(s string) (DurationCode, bool) {
	code := DurationCode(s)
	_, ok := durationMillis[code]
	return code, ok
}

// ExpiryMillis 返回传给上游的 expiryTime，永久返回 0（永不过期）
func (d DurationCode) ExpiryMillis() int64 {
	return durationMillis[d]
}

// Label 返回中文展示名
func (d DurationCode) Label() string {
	if label, ok := durationLabels[d]; ok {
		return label
	}
	return string(d)
}

// WizardState 向导状态的和类型，每个步骤只携带该步骤有效的字段
type WizardState interface {
	Step() WizardStep
	wizardState()
}

// PrefixStep 等待选择随机或自定义前缀
type PrefixStep struct{}

// CustomPrefixStep 等待用户输入自定义前缀
type CustomPrefixStep struct{}

// DurationStep 等待选择有效期，Prefix 为空表示随机前缀
type DurationStep struct {
	Prefix string
}

// DomainStep 等待选择域名
type DomainStep struct {
	Prefix   string
	Duration DurationCode
}

// ConfirmStep 等待确认创建
type ConfirmStep struct {
	Prefix   string
	Duration DurationCode
	Domain   string
}

func (PrefixStep) Step() WizardStep       { return StepPrefixChoice }
func (CustomPrefixStep) Step() WizardStep { return StepCustomPrefix }
func (DurationStep) Step() WizardStep     { return StepDuration }
func (DomainStep) Step() WizardStep       { return StepDomain }
func (ConfirmStep) Step() WizardStep      { return StepConfirm }

func (PrefixStep) wizardState()       {}
func (CustomPrefixStep) wizardState() {}
func (DurationStep) wizardState()     {}
func (DomainStep) wizardState()       {}
func (ConfirmStep) wizardState()      {}

// GenerateRequest 由确认步骤的累计选择生成创建请求
func (s ConfirmStep) GenerateRequest() GenerateRequest {
	return GenerateRequest{
		Name:       s.Prefix,
		ExpiryTime: s.Duration.ExpiryMillis(),
		Domain:     s.Domain,
	}
}

// WizardRecord 向导状态的持久化形式
type WizardRecord struct {
	Step     WizardStep   `json:"step"`
	Prefix   string       `json:"prefix,omitempty"`
	Duration DurationCode `json:"duration,omitempty"`
	Domain   string       `json:"domain,omitempty"`
}

// EncodeWizardState 把状态转换为持久化记录
func EncodeWizardState(state WizardState) WizardRecord {
	switch s := state.(type) {
	case DurationStep:
		return WizardRecord{Step: StepDuration, Prefix: s.Prefix}
	case DomainStep:
		return WizardRecord{Step: StepDomain, Prefix: s.Prefix, Duration: s.Duration}
	case ConfirmStep:
		return WizardRecord{Step: StepConfirm, Prefix: s.Prefix, Duration: s.Duration, Domain: s.Domain}
	default:
		return WizardRecord{Step: state.Step()}
	}
}

// Decode 把持久化记录还原为状态，缺少前序步骤字段时返回 ErrBrokenState
func (r WizardRecord) Decode() (WizardState, error) {
	needDuration := r.Step == StepDomain || r.Step == StepConfirm
	if needDuration {
		if _, ok := durationMillis[r.Duration]; !ok {
			return nil, fmt.Errorf("%w: step %q without duration", ErrBrokenState, r.Step)
		}
	}

	switch r.Step {
	case StepPrefixChoice:
		return PrefixStep{}, nil
	case StepCustomPrefix:
		return CustomPrefixStep{}, nil
	case StepDuration:
		return DurationStep{Prefix: r.Prefix}, nil
	case StepDomain:
		return DomainStep{Prefix: r.Prefix, Duration: r.Duration}, nil
	case StepConfirm:
		if r.Domain == "" {
			return nil, fmt.Errorf("%w: confirm without domain", ErrBrokenState)
		}
		return ConfirmStep{Prefix: r.Prefix, Duration: r.Duration, Domain: r.Domain}, nil
	default:
		return nil, fmt.Errorf("%w: unknown step %q", ErrBrokenState, r.Step)
	}
}
