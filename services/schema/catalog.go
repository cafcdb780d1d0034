package schema

// Loader names referenced by built-in schemas. Implementations are supplied
// by whoever can reach the platform (the executor side) via RegisterLoader.
const (
	LoaderTencentCollections = "tencent.collections"
)

// builtinSchemas is the publish-field catalogue for the supported platforms.
func builtinSchemas() []Schema {
	return []Schema{
		{
			Platform: Douyin,
			Label:    "抖音",
			TagLimit: limit(5),
			Fields: []Field{
				{Key: "tags", Label: "话题标签", Type: TypeTags, Placeholder: "输入标签，回车确认，如：#美食"},
				{Key: "location", Label: "位置", Type: TypeText, Placeholder: "添加位置信息"},
				{Key: "thumbnail", Label: "视频封面", Type: TypeImage, Placeholder: "选择封面图片"},
				{Key: "allowDownload", Label: "允许下载", Type: TypeSwitch, Default: true},
				{Key: "allowComment", Label: "允许评论", Type: TypeSwitch, Default: true},
				{Key: "syncToutiao", Label: "同步到今日头条", Type: TypeSwitch, Default: false},
				{Key: "syncXigua", Label: "同步到西瓜视频", Type: TypeSwitch, Default: false},
				{Key: "productLink", Label: "商品链接", Type: TypeProduct, Placeholder: "粘贴商品链接"},
				{Key: "productTitle", Label: "商品短标题", Type: TypeText, Placeholder: "输入商品短标题",
					ShowWhen: `productLink != ""`},
			},
		},
		{
			Platform: Tencent,
			Label:    "视频号",
			TagLimit: limit(5),
			Fields: []Field{
				{Key: "tags", Label: "话题标签", Type: TypeTags, Placeholder: "输入标签，回车确认"},
				{Key: "description", Label: "视频描述", Type: TypeTextarea, Placeholder: "输入视频描述", MaxLength: 200},
				{Key: "location", Label: "位置", Type: TypeText, Placeholder: "添加位置信息"},
				{Key: "shortTitle", Label: "短标题", Type: TypeText, Placeholder: "6-16个字符，自动从标题生成",
					MaxLength: 16, AutoGenerate: true, GenerateFrom: "title"},
				{Key: "collection", Label: "添加到合集", Type: TypeCollection, Placeholder: "选择合集",
					LoadOptions: LoaderTencentCollections},
				{Key: "isOriginal", Label: "声明原创", Type: TypeSwitch, Default: false},
				{Key: "originalType", Label: "原创类型", Type: TypeSelect,
					Options: []Option{
						{Label: "知识科普", Value: "knowledge"},
						{Label: "生活记录", Value: "lifestyle"},
						{Label: "其他", Value: "other"},
					},
					ShowWhen: `isOriginal == true`},
				{Key: "isDraft", Label: "保存为草稿", Type: TypeSwitch, Default: false},
			},
		},
		{
			Platform: Kuaishou,
			Label:    "快手",
			TagLimit: limit(3),
			Fields: []Field{
				{Key: "tags", Label: "话题标签", Type: TypeTags, Placeholder: "输入标签，回车确认"},
				{Key: "location", Label: "位置", Type: TypeText, Placeholder: "添加位置信息"},
				{Key: "allowDownload", Label: "允许下载", Type: TypeSwitch, Default: true},
				{Key: "useFileChooser", Label: "使用文件选择器", Type: TypeSwitch, Default: true, Internal: true},
				{Key: "skipNewFeatureGuide", Label: "跳过新功能引导", Type: TypeSwitch, Default: true, Internal: true},
			},
		},
		{
			Platform: Tiktok,
			Label:    "TikTok",
			TagLimit: limit(5),
			Fields: []Field{
				{Key: "tags", Label: "Hashtags", Type: TypeTags, Placeholder: "Enter hashtags"},
				{Key: "allowComment", Label: "Allow Comments", Type: TypeSwitch, Default: true},
				{Key: "allowDuet", Label: "Allow Duet", Type: TypeSwitch, Default: false},
				{Key: "scheduleTime", Label: "Schedule Post", Type: TypeDatetime, Placeholder: "Select publish time"},
				{Key: "useIframe", Label: "Use iframe mode", Type: TypeSwitch, Default: true, Internal: true},
			},
		},
		{
			Platform: Bilibili,
			Label:    "Bilibili",
			TagLimit: limit(5),
			Fields: []Field{
				{Key: "tags", Label: "标签", Type: TypeTags, Placeholder: "输入标签，回车确认"},
				{Key: "copyright", Label: "转载类型", Type: TypeSelect, Default: "1",
					Options: []Option{
						{Label: "自制", Value: "1"},
						{Label: "转载", Value: "2"},
					}},
				{Key: "thumbnail", Label: "视频封面", Type: TypeImage, Placeholder: "选择封面图片"},
			},
		},
		{
			Platform: Xiaohongshu,
			Label:    "小红书",
			TagLimit: limit(5),
			Fields: []Field{
				{Key: "tags", Label: "话题标签", Type: TypeTags, Placeholder: "输入标签，回车确认"},
				{Key: "location", Label: "位置", Type: TypeText, Placeholder: "添加位置信息"},
				{Key: "thumbnail", Label: "自定义封面", Type: TypeImage, Placeholder: "选择封面图片", Accept: "image/*"},
				{Key: "syncToutiao", Label: "同步到今日头条", Type: TypeSwitch, Default: false},
				{Key: "syncXigua", Label: "同步到西瓜视频", Type: TypeSwitch, Default: false},
			},
		},
		{
			Platform: Baijiahao,
			Label:    "百家号",
			TagLimit: limit(5),
			Fields: []Field{
				{Key: "tags", Label: "标签", Type: TypeTags, Placeholder: "输入标签，回车确认"},
				{Key: "category", Label: "分类", Type: TypeSelect, Required: true,
					Options: []Option{
						{Label: "美食", Value: "food"},
						{Label: "科技", Value: "tech"},
						{Label: "娱乐", Value: "entertainment"},
						{Label: "生活", Value: "life"},
						{Label: "教育", Value: "education"},
						{Label: "体育", Value: "sports"},
						{Label: "财经", Value: "finance"},
						{Label: "时尚", Value: "fashion"},
					}},
				{Key: "coverType", Label: "封面模式", Type: TypeSelect, Default: "auto",
					Options: []Option{
						{Label: "自动", Value: "auto"},
						{Label: "单图", Value: "single"},
						{Label: "三图", Value: "triple"},
					}},
				{Key: "aiDeclaration", Label: "AI创作声明", Type: TypeSwitch, Default: false},
				{Key: "autoGenerateAudio", Label: "自动生成音频", Type: TypeSwitch, Default: false},
				{Key: "waitCoverGenerated", Label: "等待封面生成", Type: TypeSwitch, Default: true, Internal: true},
				{Key: "checkSecurityVerify", Label: "检测安全验证", Type: TypeSwitch, Default: true, Internal: true},
				{Key: "autoOptimizeTitle", Label: "自动优化标题", Type: TypeSwitch, Default: false,
					Description: "标题少于8字时自动添加后缀"},
			},
		},
	}
}
