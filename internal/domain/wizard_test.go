package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationCodes(t *testing.T) {
	expected := map[DurationCode]int64{
		DurationOneHour:   3_600_000,
		DurationOneDay:    86_400_000,
		DurationThreeDays: 259_200_000,
		DurationPermanent: 0,
	}
	for code, ms := range expected {
		parsed, ok := ParseDurationCode(string(code))
		require.True(t, ok)
		assert.Equal(t, ms, parsed.ExpiryMillis())
	}

	_, ok := ParseDurationCode("2h")
	assert.False(t, ok)
	assert.Equal(t, "永久", DurationPermanent.Label())
}

func TestWizardRecordRoundTrip(t *testing.T) {
	states := []WizardState{
		PrefixStep{},
		CustomPrefixStep{},
		DurationStep{},
		DurationStep{Prefix: "alice"},
		DomainStep{Prefix: "alice", Duration: DurationOneDay},
		ConfirmStep{Duration: DurationPermanent, Domain: "unsend.de"},
	}

	for _, state := range states {
		t.Run(string(state.Step()), func(t *testing.T) {
			data, err := json.Marshal(EncodeWizardState(state))
			require.NoError(t, err)

			var record WizardRecord
			require.NoError(t, json.Unmarshal(data, &record))

			decoded, err := record.Decode()
			require.NoError(t, err)
			assert.Equal(t, state, decoded)
		})
	}
}

func TestWizardRecordDecodeBroken(t *testing.T) {
	tests := []struct {
		name   string
		record WizardRecord
	}{
		{"域名步骤缺少有效期", WizardRecord{Step: StepDomain}},
		{"确认步骤缺少域名", WizardRecord{Step: StepConfirm, Duration: DurationOneHour}},
		{"确认步骤有效期无效", WizardRecord{Step: StepConfirm, Duration: "2h", Domain: "unsend.de"}},
		{"未知步骤", WizardRecord{Step: "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.record.Decode()
			assert.ErrorIs(t, err, ErrBrokenState)
		})
	}
}

func TestConfirmStepGenerateRequest(t *testing.T) {
	req := ConfirmStep{Prefix: "bob", Duration: DurationThreeDays, Domain: "a.dev"}.GenerateRequest()
	assert.Equal(t, GenerateRequest{Name: "bob", ExpiryTime: 259_200_000, Domain: "a.dev"}, req)

	req = ConfirmStep{Duration: DurationPermanent, Domain: "a.dev"}.GenerateRequest()
	assert.Empty(t, req.Name)
	assert.Zero(t, req.ExpiryTime)
}
