package conspiracy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[int]string{
		0:   "Skeptic",
		20:  "Skeptic",
		21:  "Curious Observer",
		40:  "Curious Observer",
		41:  "Questioner",
		60:  "Questioner",
		61:  "True Believer",
		80:  "True Believer",
		81:  "Tinfoil Hat",
		100: "Tinfoil Hat",
		250: "Tinfoil Hat",
	}
	for score, want := range cases {
		l, err := Classify(score)
		require.NoError(t, err, "score %d", score)
		assert.Equal(t, want, l.Name, "score %d", score)
	}
}

func TestClassify_Negative(t *testing.T) {
	_, err := Classify(-1)
	assert.ErrorIs(t, err, ErrNegativeScore)
}

func TestLevels_TableIsContiguous(t *testing.T) {
	ls := Levels()
	require.NotEmpty(t, ls)
	assert.Equal(t, 0, ls[0].Min)
	assert.Equal(t, MaxScore, ls[len(ls)-1].Max)
	for i := 1; i < len(ls); i++ {
		assert.Equal(t, ls[i-1].Max+1, ls[i].Min)
	}

	ls[0].Name = "changed"
	assert.Equal(t, "Skeptic", Levels()[0].Name)
}

func TestScore(t *testing.T) {
	total, score, err := Score([]int{10, 10, 10, 10})
	require.NoError(t, err)
	assert.Equal(t, 40, total)
	assert.Equal(t, 100, score)

	total, score, err = Score([]int{3, 4, 0})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Equal(t, 23, score)

	_, _, err = Score(nil)
	assert.ErrorIs(t, err, ErrNoAnswers)
	_, _, err = Score([]int{11})
	assert.ErrorIs(t, err, ErrAnswerRange)
	_, _, err = Score(make([]int, MaxAnswers+1))
	assert.ErrorIs(t, err, ErrTooManyAnswers)
}
