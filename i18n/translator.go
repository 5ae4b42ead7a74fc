package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional parameters to embed in the message (for example,
// "max" or "expected"); placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":  "invalid type, expected {expected}",
		"required":      "mandatory key missing",
		"unknown_key":   "unknown key",
		"duplicate_key": "duplicate key",
		"too_small":     "value is below minimum {min}",
		"too_big":       "value is above maximum {max}",
		"too_long":      "longer than {max} characters",
		"pattern":       "does not match {pattern}",
		"invalid_enum":  "not one of the allowed values",
		"arity":         "expected {expected} arguments, got {got}",
		"unknown_name":  "unknown name {name}",
		"parse_error":   "parse error",
		"truncated":     "truncated",
	},
	"ja": {
		"invalid_type":  "型が不正です（期待値: {expected}）",
		"required":      "必須キーが不足しています",
		"unknown_key":   "未知のキーです",
		"duplicate_key": "キーが重複しています",
		"too_small":     "最小値 {min} 未満です",
		"too_big":       "最大値 {max} を超えています",
		"too_long":      "{max} 文字を超えています",
		"pattern":       "{pattern} に一致しません",
		"invalid_enum":  "許可された値ではありません",
		"arity":         "引数の数が不正です（期待値: {expected}、実際: {got}）",
		"unknown_name":  "未知の名前です: {name}",
		"parse_error":   "解析エラー",
		"truncated":     "打ち切られました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return fill(msg, data)
}

// fill substitutes "{name}" placeholders in a single pass; unknown names
// render as "?". Substituted values are never rescanned.
func fill(tmpl string, data map[string]string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var b strings.Builder
	for {
		i := strings.IndexByte(tmpl, '{')
		if i < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		j := strings.IndexByte(tmpl[i:], '}')
		if j < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		b.WriteString(tmpl[:i])
		if v, ok := data[tmpl[i+1:i+j]]; ok {
			b.WriteString(v)
		} else {
			b.WriteString("?")
		}
		tmpl = tmpl[i+j+1:]
	}
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
