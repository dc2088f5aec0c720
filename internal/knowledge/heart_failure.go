// Package knowledge answers heart-failure questions from a fixed fact table.
package knowledge

import "strings"

// Header opens every answer, including ones with no matching section.
const Header = "根據心臟衰竭相關數據：\n\n"

// Topic is the keyword that routes an AI message to this table instead of the LLM.
const Topic = "心臟衰竭"

var (
	attributes = []string{"年齡", "性別", "心臟病史", "高血壓", "糖尿病", "吸煙史", "肥胖"}

	onsetConditions = []string{
		"左心室射血分數 (LVEF) < 40%",
		"心臟超音波顯示左心室收縮功能異常",
		"B型利鈉肽 (BNP) > 100 pg/mL 或 NT-proBNP > 300 pg/mL",
		"胸部X光顯示肺部水腫或心臟擴大",
	}

	heartAttackCriteria = []string{
		"胸痛持續超過20分鐘",
		"心電圖顯示ST段上升",
		"心肌酶學指標升高（如肌鈣蛋白、肌酸激酶）",
	}

	heartFailureCriteria = []string{
		"紐約心臟協會(NYHA)功能分級II級以上",
		"呼吸困難",
		"疲勞",
		"運動耐受性下降",
		"下肢水腫",
	}
)

type section struct {
	title string
	facts []string
	match func(q string) bool
}

func containsAny(terms ...string) func(string) bool {
	return func(q string) bool {
		for _, t := range terms {
			if strings.Contains(q, t) {
				return true
			}
		}
		return false
	}
}

func containsAll(terms ...string) func(string) bool {
	return func(q string) bool {
		for _, t := range terms {
			if !strings.Contains(q, t) {
				return false
			}
		}
		return true
	}
}

// sections are emitted in this order; every title after the first is preceded by a blank line.
var sections = []section{
	{title: "相關屬性資訊包括：", facts: attributes, match: containsAny("屬性", "資訊")},
	{title: "\n\n心臟衰竭的發病條件包括：", facts: onsetConditions, match: containsAny("發病條件", "心臟衰竭條件")},
	{title: "\n\n心臟病發病標準：", facts: heartAttackCriteria, match: containsAll("心臟病", "標準")},
	{title: "\n\n心臟衰竭標準：", facts: heartFailureCriteria, match: containsAny("心臟衰竭標準")},
}

// Matches reports whether text should be answered from the table.
func Matches(text string) bool {
	return strings.Contains(text, Topic)
}

// Answer composes the reply for query. A query matching no section yields only Header.
func Answer(query string) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, s := range sections {
		if !s.match(query) {
			continue
		}
		b.WriteString(s.title)
		for _, f := range s.facts {
			b.WriteString("\n- ")
			b.WriteString(f)
		}
	}
	return b.String()
}
