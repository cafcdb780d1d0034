package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(RegistryParams{})
}

func TestBuiltinPlatformsRegistered(t *testing.T) {
	r := newRegistry(t)

	schemas := r.Platforms()
	require.Len(t, schemas, 7)

	want := []Platform{Douyin, Tencent, Kuaishou, Tiktok, Bilibili, Xiaohongshu, Baijiahao}
	for i, p := range want {
		require.Equal(t, p, schemas[i].Platform)
	}
}

func TestGetUnknownPlatform(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Get(Platform("vine"))
	require.Error(t, err)
	// the offending name must survive into the message
	require.Contains(t, err.Error(), "vine")
}

func TestRegisterReplacesWithoutReordering(t *testing.T) {
	r := newRegistry(t)

	custom := Schema{Platform: Douyin, Label: "custom", Fields: []Field{{Key: "only", Type: TypeText}}}
	r.Register(custom)

	s, err := r.Get(Douyin)
	require.NoError(t, err)
	require.Equal(t, "custom", s.Label)
	require.Len(t, r.Platforms(), 7)
	require.Equal(t, Douyin, r.Platforms()[0].Platform)
}

func TestTagLimits(t *testing.T) {
	cases := map[Platform]int{
		Douyin:      5,
		Tencent:     5,
		Kuaishou:    3,
		Tiktok:      5,
		Bilibili:    5,
		Xiaohongshu: 5,
		Baijiahao:   5,
	}

	r := newRegistry(t)
	for platform, want := range cases {
		got, ok := r.TagLimit(platform)
		require.True(t, ok, "platform %s", platform)
		require.Equal(t, want, got, "platform %s", platform)
	}

	_, ok := r.TagLimit(Platform("vine"))
	require.False(t, ok)
}

func TestVisibleWithoutPredicate(t *testing.T) {
	r := newRegistry(t)

	ok, err := r.Visible(Field{Key: "tags", Type: TypeTags}, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVisibleEvaluatesPredicate(t *testing.T) {
	r := newRegistry(t)
	f := Field{Key: "productTitle", Type: TypeText, ShowWhen: `productLink != ""`}

	ok, err := r.Visible(f, map[string]any{"productLink": "", "productTitle": ""})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = r.Visible(f, map[string]any{"productLink": "https://x", "productTitle": ""})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOptionsStatic(t *testing.T) {
	r := newRegistry(t)

	opts, err := r.Options(context.Background(), Tencent, "originalType")
	require.NoError(t, err)
	require.Len(t, opts, 3)
	require.Equal(t, "knowledge", opts[0].Value)
}

func TestOptionsDynamicLoader(t *testing.T) {
	r := newRegistry(t)

	// without a registered loader the field degrades to no options
	opts, err := r.Options(context.Background(), Tencent, "collection")
	require.NoError(t, err)
	require.Nil(t, opts)

	r.RegisterLoader(LoaderTencentCollections, func(ctx context.Context, platform Platform) ([]Option, error) {
		require.Equal(t, Tencent, platform)
		return []Option{{Label: "旅行", Value: "col-1"}}, nil
	})

	opts, err = r.Options(context.Background(), Tencent, "collection")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	require.Equal(t, "col-1", opts[0].Value)
}

func TestOptionsLoaderFailure(t *testing.T) {
	r := newRegistry(t)
	r.RegisterLoader(LoaderTencentCollections, func(ctx context.Context, platform Platform) ([]Option, error) {
		return nil, errors.New("platform api unreachable")
	})

	_, err := r.Options(context.Background(), Tencent, "collection")
	require.Error(t, err)
}

func TestOptionsUnknownField(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Options(context.Background(), Douyin, "nope")
	require.Error(t, err)
}

func TestFieldZeroValues(t *testing.T) {
	require.Equal(t, false, TypeSwitch.ZeroValue())
	require.Equal(t, 0, TypeNumber.ZeroValue())
	require.Equal(t, []string{}, TypeTags.ZeroValue())
	require.Equal(t, "", TypeText.ZeroValue())
	require.Equal(t, "", TypeSelect.ZeroValue())
}

func TestInternalFieldsAreSwitches(t *testing.T) {
	r := newRegistry(t)

	// every built-in internal field is an executor behavior toggle with a
	// concrete default
	for _, s := range r.Platforms() {
		for _, f := range s.Fields {
			if !f.Internal {
				continue
			}
			require.Equal(t, TypeSwitch, f.Type, "%s.%s", s.Platform, f.Key)
			require.NotNil(t, f.Default, "%s.%s", s.Platform, f.Key)
		}
	}
}
