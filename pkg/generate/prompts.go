package generate

import (
	"fmt"
	"strings"
)

const defaultTopP = 0.9

// ConvertRequest asks for the single best Chinese rendering of pinyin.
func ConvertRequest(pinyin string) Request {
	return Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "你是一个专业的中文拼音输入法转换器。请将用户输入的拼音转换为对应的中文字符。"},
			{Role: RoleUser, Content: fmt.Sprintf("请将拼音\"%s\"转换为中文。只返回1个跟拼音最匹配的候选，不要其他说明。", pinyin)},
		},
		MaxTokens:   150,
		Temperature: 0.3,
		TopP:        defaultTopP,
	}
}

// ColloquialRequest asks for a more colloquial rendering of text.
func ColloquialRequest(text string) Request {
	return Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "你是一个专业的中文表达优化专家。请将用户提供的文字改为更口语化、通顺、易理解的表达方式。"},
			{Role: RoleUser, Content: "请将以下文字改为更口语化、通顺、易理解的表达方式。只返回优化后的文字，不要其他说明：" + text},
		},
		MaxTokens:   100,
		Temperature: 0.5,
		TopP:        defaultTopP,
	}
}

// ExpandRequest asks for a short sentence that begins with text.
func ExpandRequest(text string) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "我给你一个词语：\"%s\"，请你用这个词语开头，在后面续写内容形成一个完整的句子。\n\n", text)
	b.WriteString("要求：\n")
	fmt.Fprintf(&b, "1. 必须以\"%s\"开头\n", text)
	b.WriteString("2. 后面续写一句简短自然的话\n")
	b.WriteString("3. 只返回完整的句子，不要解释\n\n\n")
	fmt.Fprintf(&b, "现在请处理：\"%s\"", text)

	return Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "帮用户把没说完的话补充完整。请将用户提供的词语开头，续写一句简短自然的话。"},
			{Role: RoleUser, Content: b.String()},
		},
		MaxTokens:   80,
		Temperature: 0.7,
		TopP:        defaultTopP,
	}
}

// Merge carries a finished correction session: the original pinyin and its
// transcription, plus the concatenated pinyin and text the user confirmed.
type Merge struct {
	OriginalPinyin  string
	OriginalText    string
	CorrectedPinyin string
	CorrectedText   string
}

// MergeRequest asks the backend to fold a correction into the original
// transcription and return the full corrected sentence.
func MergeRequest(m Merge) Request {
	var b strings.Builder
	b.WriteString("你是一个智能拼音输入法纠错助手。\n\n")
	b.WriteString("【原始输入】\n")
	fmt.Fprintf(&b, "拼音：%s\n", m.OriginalPinyin)
	fmt.Fprintf(&b, "AI转换：%s\n\n", m.OriginalText)
	b.WriteString("【用户纠正】\n")
	fmt.Fprintf(&b, "拼音片段：%s\n", m.CorrectedPinyin)
	fmt.Fprintf(&b, "用户选择：%s\n\n", m.CorrectedText)
	b.WriteString("【任务】\n")
	b.WriteString("根据用户的纠正，修改AI转换结果中对应的错误部分。\n")
	b.WriteString("只返回修改后的完整句子，不要任何解释、引号或标点。\n\n")
	b.WriteString("【示例】\n")
	b.WriteString("原始拼音：wo jiao wang xiao ming\n")
	b.WriteString("AI转换：我叫王小明\n")
	b.WriteString("用户纠正：wangxiaoming → 汪晓明\n")
	b.WriteString("正确输出：我叫汪晓明\n\n")
	b.WriteString("现在请处理：")

	return Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "你是一个专业的拼音输入法纠错助手。根据用户提供的纠正信息，修改AI转换结果中的错误部分。"},
			{Role: RoleUser, Content: b.String()},
		},
		MaxTokens:   150,
		Temperature: 0.3,
		TopP:        defaultTopP,
	}
}
