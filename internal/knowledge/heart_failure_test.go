package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerNoMatchReturnsHeaderOnly(t *testing.T) {
	assert.Equal(t, Header, Answer("心臟衰竭怎麼辦"))
	assert.Equal(t, Header, Answer(""))
}

func TestAnswerHeartFailureCriteria(t *testing.T) {
	got := Answer("心臟衰竭標準是什麼")
	want := Header + "\n\n心臟衰竭標準：\n- 紐約心臟協會(NYHA)功能分級II級以上\n- 呼吸困難\n- 疲勞\n- 運動耐受性下降\n- 下肢水腫"
	assert.Equal(t, want, got)
}

func TestAnswerAttributesSection(t *testing.T) {
	got := Answer("心臟衰竭的屬性")
	assert.Equal(t, Header+"相關屬性資訊包括：\n- 年齡\n- 性別\n- 心臟病史\n- 高血壓\n- 糖尿病\n- 吸煙史\n- 肥胖", got)
}

func TestAnswerSectionsInFixedOrder(t *testing.T) {
	got := Answer("心臟衰竭標準 心臟病 發病條件 資訊")
	iAttr := strings.Index(got, "相關屬性資訊包括")
	iOnset := strings.Index(got, "心臟衰竭的發病條件包括")
	iAttack := strings.Index(got, "心臟病發病標準")
	iHF := strings.Index(got, "\n\n心臟衰竭標準：")
	assert.True(t, iAttr >= 0 && iAttr < iOnset && iOnset < iAttack && iAttack < iHF, got)
}

func TestAnswerHeartAttackNeedsBothTerms(t *testing.T) {
	assert.NotContains(t, Answer("心臟病"), "心臟病發病標準")
	assert.Contains(t, Answer("心臟病的標準"), "心臟病發病標準：\n- 胸痛持續超過20分鐘")
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("請問心臟衰竭標準"))
	assert.False(t, Matches("今天天氣如何"))
}
