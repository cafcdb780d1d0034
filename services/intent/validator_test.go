package intent

import (
	"testing"

	"crosspost/services/schema"

	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	registry := schema.NewRegistry(schema.RegistryParams{})
	return NewValidator(ValidatorParams{Registry: registry})
}

func draftFor(platform schema.Platform, fields map[string]any) Draft {
	return Draft{
		VideoID: 42,
		Common:  Common{Title: "测试视频", Description: "描述"},
		Platforms: []PlatformSelection{
			{Platform: platform, Accounts: []int64{1001}, Fields: fields},
		},
	}
}

func TestValidateRejectsUnknownPlatform(t *testing.T) {
	v := newValidator(t)

	_, _, err := v.Validate(draftFor(schema.Platform("myspace"), nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "myspace")
}

func TestValidateRequiresAccounts(t *testing.T) {
	v := newValidator(t)

	draft := draftFor(schema.Douyin, nil)
	draft.Platforms[0].Accounts = nil
	_, _, err := v.Validate(draft)
	require.Error(t, err)
}

func TestValidateTagLimit(t *testing.T) {
	v := newValidator(t)

	draft := draftFor(schema.Douyin, map[string]any{
		"tags": []any{"a", "b", "c", "d", "e", "f"},
	})
	validated, fieldErrs, err := v.Validate(draft)
	require.NoError(t, err)
	require.Nil(t, validated)
	require.Len(t, fieldErrs, 1)
	require.Equal(t, schema.Douyin, fieldErrs[0].Platform)
	require.Equal(t, "tags", fieldErrs[0].Key)
	require.Equal(t, TooManyTags, fieldErrs[0].Kind)

	// exactly at the limit passes
	draft = draftFor(schema.Douyin, map[string]any{
		"tags": []any{"a", "b", "c", "d", "e"},
	})
	validated, fieldErrs, err = v.Validate(draft)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, validated.Platforms[0].Bundle["tags"])
}

func TestValidateKuaishouTighterTagLimit(t *testing.T) {
	v := newValidator(t)

	draft := draftFor(schema.Kuaishou, map[string]any{
		"tags": []any{"a", "b", "c", "d"},
	})
	_, fieldErrs, err := v.Validate(draft)
	require.NoError(t, err)
	require.Len(t, fieldErrs, 1)
	require.Equal(t, TooManyTags, fieldErrs[0].Kind)
}

func TestValidateMissingRequiredField(t *testing.T) {
	v := newValidator(t)

	_, fieldErrs, err := v.Validate(draftFor(schema.Baijiahao, nil))
	require.NoError(t, err)
	require.Len(t, fieldErrs, 1)
	require.Equal(t, schema.Baijiahao, fieldErrs[0].Platform)
	require.Equal(t, "category", fieldErrs[0].Key)
	require.Equal(t, MissingRequiredField, fieldErrs[0].Kind)

	validated, fieldErrs, err := v.Validate(draftFor(schema.Baijiahao, map[string]any{"category": "tech"}))
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	require.Equal(t, "tech", validated.Platforms[0].Bundle["category"])
}

func TestValidateHiddenFieldDiscarded(t *testing.T) {
	v := newValidator(t)

	// originalType is only visible when isOriginal is on; a stale value for
	// a hidden field must neither error nor reach the bundle
	draft := draftFor(schema.Tencent, map[string]any{
		"isOriginal":   false,
		"originalType": "knowledge",
	})
	validated, fieldErrs, err := v.Validate(draft)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	require.NotContains(t, validated.Platforms[0].Bundle, "originalType")

	draft = draftFor(schema.Tencent, map[string]any{
		"isOriginal":   true,
		"originalType": "knowledge",
	})
	validated, fieldErrs, err = v.Validate(draft)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	require.Equal(t, "knowledge", validated.Platforms[0].Bundle["originalType"])
}

func TestValidateConditionalOnEarlierField(t *testing.T) {
	v := newValidator(t)

	// productTitle depends on productLink being set
	draft := draftFor(schema.Douyin, map[string]any{"productTitle": "好物"})
	validated, _, err := v.Validate(draft)
	require.NoError(t, err)
	require.NotContains(t, validated.Platforms[0].Bundle, "productTitle")

	draft = draftFor(schema.Douyin, map[string]any{
		"productLink":  "https://example.com/item/1",
		"productTitle": "好物",
	})
	validated, _, err = v.Validate(draft)
	require.NoError(t, err)
	require.Equal(t, "好物", validated.Platforms[0].Bundle["productTitle"])
}

func TestValidateAutoGeneratesShortTitle(t *testing.T) {
	v := newValidator(t)

	draft := draftFor(schema.Tencent, nil)
	draft.Common.Title = "这是一个非常非常长的标题用于测试自动截断逻辑"
	validated, fieldErrs, err := v.Validate(draft)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)

	short, ok := validated.Platforms[0].Bundle["shortTitle"].(string)
	require.True(t, ok)
	require.Equal(t, 16, len([]rune(short)))
	require.Equal(t, "这是一个非常非常长的标题用于测试", short)

	// an explicit short title is never overwritten
	draft.Platforms[0].Fields = map[string]any{"shortTitle": "自定义"}
	validated, _, err = v.Validate(draft)
	require.NoError(t, err)
	require.Equal(t, "自定义", validated.Platforms[0].Bundle["shortTitle"])
}

func TestValidateInternalFieldsForced(t *testing.T) {
	v := newValidator(t)

	// internal switches are not operator input; attempts to flip them are
	// ignored
	draft := draftFor(schema.Kuaishou, map[string]any{"useFileChooser": false})
	validated, _, err := v.Validate(draft)
	require.NoError(t, err)
	require.Equal(t, true, validated.Platforms[0].Bundle["useFileChooser"])
	require.Equal(t, true, validated.Platforms[0].Bundle["skipNewFeatureGuide"])
}

func TestValidateSwitchDefaults(t *testing.T) {
	v := newValidator(t)

	validated, _, err := v.Validate(draftFor(schema.Douyin, nil))
	require.NoError(t, err)
	bundle := validated.Platforms[0].Bundle
	require.Equal(t, true, bundle["allowDownload"])
	require.Equal(t, true, bundle["allowComment"])
	require.Equal(t, false, bundle["syncToutiao"])

	validated, _, err = v.Validate(draftFor(schema.Douyin, map[string]any{"allowDownload": false}))
	require.NoError(t, err)
	require.Equal(t, false, validated.Platforms[0].Bundle["allowDownload"])
}

func TestValidateDropsUnknownKeys(t *testing.T) {
	v := newValidator(t)

	validated, _, err := v.Validate(draftFor(schema.Douyin, map[string]any{"nope": "x"}))
	require.NoError(t, err)
	require.NotContains(t, validated.Platforms[0].Bundle, "nope")
}

func TestValidateAggregatesAcrossPlatforms(t *testing.T) {
	v := newValidator(t)

	draft := Draft{
		VideoID: 42,
		Common:  Common{Title: "t"},
		Platforms: []PlatformSelection{
			{Platform: schema.Douyin, Accounts: []int64{1}, Fields: map[string]any{
				"tags": []any{"a", "b", "c", "d", "e", "f"},
			}},
			{Platform: schema.Baijiahao, Accounts: []int64{2}, Fields: nil},
		},
	}
	validated, fieldErrs, err := v.Validate(draft)
	require.NoError(t, err)
	require.Nil(t, validated)
	require.Len(t, fieldErrs, 2)
}

func TestValidateRejectsDuplicatePlatform(t *testing.T) {
	v := newValidator(t)

	draft := Draft{
		VideoID: 42,
		Common:  Common{Title: "t"},
		Platforms: []PlatformSelection{
			{Platform: schema.Douyin, Accounts: []int64{1}},
			{Platform: schema.Douyin, Accounts: []int64{2}},
		},
	}
	_, _, err := v.Validate(draft)
	require.Error(t, err)
}

func TestValidateCommonBundlePropagates(t *testing.T) {
	v := newValidator(t)

	validated, _, err := v.Validate(draftFor(schema.Bilibili, nil))
	require.NoError(t, err)
	bundle := validated.Platforms[0].Bundle
	require.Equal(t, "测试视频", bundle["title"])
	require.Equal(t, "描述", bundle["description"])
	require.Equal(t, "1", bundle["copyright"])
}

func TestValidatePerPlatformOverrides(t *testing.T) {
	v := newValidator(t)

	draft := Draft{
		VideoID: 42,
		Common:  Common{Title: "共用标题", Description: "共用描述"},
		Platforms: []PlatformSelection{
			{Platform: schema.Douyin, Accounts: []int64{1}, Fields: map[string]any{"title": "抖音专属标题"}},
			{Platform: schema.Bilibili, Accounts: []int64{2}, Fields: nil},
		},
	}
	validated, fieldErrs, err := v.Validate(draft)
	require.NoError(t, err)
	require.Empty(t, fieldErrs)
	require.Equal(t, "抖音专属标题", validated.Platforms[0].Bundle["title"])
	require.Equal(t, "共用标题", validated.Platforms[1].Bundle["title"])
	require.Equal(t, "共用描述", validated.Platforms[0].Bundle["description"])
}
