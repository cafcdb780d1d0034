package schema

// Platform identifies one publish destination. The set is fixed; adding a
// platform means registering a new Schema, not changing consumers.
type Platform string

const (
	Douyin      Platform = "douyin"
	Tencent     Platform = "tencent"
	Kuaishou    Platform = "kuaishou"
	Tiktok      Platform = "tiktok"
	Bilibili    Platform = "bilibili"
	Xiaohongshu Platform = "xiaohongshu"
	Baijiahao   Platform = "baijiahao"
)

func (p Platform) String() string {
	switch p {
	case Douyin, Tencent, Kuaishou, Tiktok, Bilibili, Xiaohongshu, Baijiahao:
		return string(p)
	default:
		return ""
	}
}

// FieldType enumerates the kinds of publish-time fields a platform may expose.
type FieldType string

const (
	TypeText       FieldType = "input"
	TypeTextarea   FieldType = "textarea"
	TypeSelect     FieldType = "select"
	TypeSwitch     FieldType = "switch"
	TypeTags       FieldType = "tags"
	TypeNumber     FieldType = "number"
	TypeFile       FieldType = "file"
	TypeImage      FieldType = "image"
	TypeDatetime   FieldType = "datetime"
	TypeCollection FieldType = "collection"
	TypeProduct    FieldType = "product"
)

// ZeroValue returns the neutral value for the field type. The validator seeds
// every schema key with its zero value so visibility predicates always see a
// fully populated variable set.
func (t FieldType) ZeroValue() any {
	switch t {
	case TypeSwitch:
		return false
	case TypeNumber:
		return 0
	case TypeTags:
		return []string{}
	default:
		return ""
	}
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Field describes one capability of a platform.
//
// ShowWhen is a CEL expression over the sibling field values of the same
// draft; an empty expression means always visible. LoadOptions names a
// registered options loader for fields whose choices are fetched at runtime
// (e.g. platform collections). Internal fields are system-managed and never
// operator input.
type Field struct {
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	Type         FieldType `json:"type"`
	Required     bool      `json:"required,omitempty"`
	Placeholder  string    `json:"placeholder,omitempty"`
	Options      []Option  `json:"options,omitempty"`
	MaxLength    int       `json:"maxLength,omitempty"`
	Min          int       `json:"min,omitempty"`
	Max          int       `json:"max,omitempty"`
	Default      any       `json:"defaultValue,omitempty"`
	ShowWhen     string    `json:"showWhen,omitempty"`
	Internal     bool      `json:"internal,omitempty"`
	LoadOptions  string    `json:"loadOptions,omitempty"`
	AutoGenerate bool      `json:"autoGenerate,omitempty"`
	GenerateFrom string    `json:"generateFrom,omitempty"`
	Accept       string    `json:"accept,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// Schema is the ordered capability description of one platform. Field order
// is a contract: a field's ShowWhen predicate may depend on earlier fields'
// resolved values, never on later ones.
type Schema struct {
	Platform Platform `json:"platform"`
	Label    string   `json:"label"`
	Fields   []Field  `json:"fields"`
	// TagLimit is the platform tag-count ceiling; nil means unbounded or no
	// tag field.
	TagLimit *int `json:"tagLimit,omitempty"`
}

// FieldByKey returns the field with the given key, if present.
func (s Schema) FieldByKey(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func limit(n int) *int { return &n }
