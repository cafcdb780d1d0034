package intent

import (
	"fmt"

	"crosspost/pkg/errutil"
	"crosspost/services/schema"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Validator normalizes a Draft against the platform capability schemas.
// Validation is all-or-nothing: a single field error anywhere prevents
// Validated construction for the whole draft, so no partial-platform publish
// can ever be created.
type Validator struct {
	registry *schema.Registry
	logger   *zap.Logger
}

type ValidatorParams struct {
	fx.In
	Registry *schema.Registry
	Logger   *zap.Logger `optional:"true"`
}

func NewValidator(p ValidatorParams) *Validator {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{registry: p.Registry, logger: logger}
}

// Validate resolves every platform bundle in schema-declaration order.
// Field errors are aggregated across all platforms; a non-nil error reports
// problems outside the per-field taxonomy (unknown platform, broken
// predicate).
func (v *Validator) Validate(draft Draft) (*Validated, []FieldError, error) {
	if draft.VideoID == 0 {
		return nil, nil, errutil.BadRequest("videoId is required")
	}
	if len(draft.Platforms) == 0 {
		return nil, nil, errutil.BadRequest("at least one platform is required")
	}

	var fieldErrs []FieldError
	out := &Validated{
		VideoID:      draft.VideoID,
		ScheduleTime: draft.ScheduleTime,
	}

	seen := make(map[schema.Platform]bool, len(draft.Platforms))
	accountsTotal := 0
	for _, sel := range draft.Platforms {
		if seen[sel.Platform] {
			return nil, nil, errutil.BadRequest(fmt.Sprintf("platform %q selected twice", string(sel.Platform)))
		}
		seen[sel.Platform] = true
		accountsTotal += len(sel.Accounts)

		sch, err := v.registry.Get(sel.Platform)
		if err != nil {
			return nil, nil, err
		}

		bundle, errs, err := v.resolvePlatform(sch, draft.Common, sel.Fields)
		if err != nil {
			return nil, nil, err
		}
		fieldErrs = append(fieldErrs, errs...)

		out.Platforms = append(out.Platforms, PlatformIntent{
			Platform:   sel.Platform,
			AccountIDs: append([]int64(nil), sel.Accounts...),
			Bundle:     bundle,
		})
	}

	if accountsTotal == 0 {
		return nil, nil, errutil.BadRequest("at least one account is required")
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}
	return out, nil, nil
}

// resolvePlatform walks the schema fields in declaration order so that a
// later field's visibility predicate may depend on an earlier field's final
// value, never on a later one.
func (v *Validator) resolvePlatform(sch schema.Schema, common Common, supplied map[string]any) (map[string]any, []FieldError, error) {
	// Seed every schema key with its zero value so predicates always see a
	// fully populated variable set, then lay the common bundle and the
	// operator's values on top. Keys outside the schema are dropped.
	values := make(map[string]any, len(sch.Fields)+2)
	for _, f := range sch.Fields {
		values[f.Key] = f.Type.ZeroValue()
	}
	values["title"] = common.Title
	values["description"] = common.Description
	for _, f := range sch.Fields {
		if raw, ok := supplied[f.Key]; ok {
			values[f.Key] = normalize(f, raw)
		}
	}
	// the common bundle may be overridden per platform
	for _, key := range []string{"title", "description"} {
		if s, ok := supplied[key].(string); ok && s != "" {
			values[key] = s
		}
	}
	for key := range supplied {
		if key == "title" || key == "description" {
			continue
		}
		if _, ok := sch.FieldByKey(key); !ok {
			v.logger.Debug("dropping unknown field",
				zap.String("platform", string(sch.Platform)),
				zap.String("key", key),
			)
		}
	}

	var errs []FieldError
	bundle := map[string]any{
		"title":       values["title"],
		"description": values["description"],
	}

	for _, f := range sch.Fields {
		visible, err := v.registry.Visible(f, values)
		if err != nil {
			return nil, nil, errutil.Internal(fmt.Sprintf("visibility predicate for %s.%s", sch.Platform, f.Key), errutil.WithErr(err))
		}

		if !visible {
			// a hidden field's value must not leak into the intent
			values[f.Key] = f.Type.ZeroValue()
			delete(bundle, f.Key)
			continue
		}

		if f.Internal {
			// internal fields are never operator input
			values[f.Key] = defaultValue(f)
			bundle[f.Key] = values[f.Key]
			continue
		}

		if f.AutoGenerate && f.GenerateFrom != "" && isEmpty(values[f.Key]) {
			if src, ok := values[f.GenerateFrom].(string); ok && src != "" {
				values[f.Key] = truncateRunes(src, f.MaxLength)
			}
		}

		if _, ok := supplied[f.Key]; !ok {
			if def := defaultValue(f); def != nil {
				values[f.Key] = def
			}
		}

		if f.Required && isEmpty(values[f.Key]) {
			errs = append(errs, FieldError{
				Platform: sch.Platform,
				Key:      f.Key,
				Kind:     MissingRequiredField,
				Message:  fmt.Sprintf("%s is required", f.Key),
			})
			continue
		}

		if f.Type == schema.TypeTags {
			tags, _ := values[f.Key].([]string)
			if max, bounded := v.registry.TagLimit(sch.Platform); bounded && len(tags) > max {
				errs = append(errs, FieldError{
					Platform: sch.Platform,
					Key:      f.Key,
					Kind:     TooManyTags,
					Message:  fmt.Sprintf("at most %d tags allowed, got %d", max, len(tags)),
				})
				continue
			}
		}

		if !isEmpty(values[f.Key]) || f.Type == schema.TypeSwitch {
			bundle[f.Key] = values[f.Key]
		}
	}

	return bundle, errs, nil
}

// normalize coerces JSON-decoded values into the field's canonical Go shape.
func normalize(f schema.Field, raw any) any {
	switch f.Type {
	case schema.TypeTags:
		switch v := raw.(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		default:
			return []string{}
		}
	case schema.TypeSwitch:
		b, _ := raw.(bool)
		return b
	case schema.TypeNumber:
		switch v := raw.(type) {
		case float64:
			return int(v)
		case int:
			return v
		default:
			return 0
		}
	default:
		s, _ := raw.(string)
		return s
	}
}

func defaultValue(f schema.Field) any {
	if f.Default != nil {
		return f.Default
	}
	if f.Internal {
		return f.Type.ZeroValue()
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case bool:
		// a switch is never "missing"; false is a legitimate value
		return false
	case int:
		return t == 0
	default:
		return false
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
