package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFeedbackColumn_NamedColumn(t *testing.T) {
	csv := "id,customer_review,date\n" +
		"1,\"the app is wonderful to use\",2026-01-01\n" +
		"2,too short,2026-01-02\n" +
		"3,\"crashes every time I open a file\",2026-01-03\n"

	reviews, err := extractFeedbackColumn([]byte(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"the app is wonderful to use",
		"crashes every time I open a file",
	}, reviews)
}

func TestExtractFeedbackColumn_CaseInsensitiveHeader(t *testing.T) {
	csv := "ID,Feedback\n1,\"support answered within minutes\"\n"

	reviews, err := extractFeedbackColumn([]byte(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"support answered within minutes"}, reviews)
}

func TestExtractFeedbackColumn_FallbackToLongCells(t *testing.T) {
	csv := "a,b\n" +
		"x,\"this row has no recognizable header at all\"\n" +
		"y,short\n"

	reviews, err := extractFeedbackColumn([]byte(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"this row has no recognizable header at all"}, reviews)
}

func TestExtractFeedbackColumn_Errors(t *testing.T) {
	_, err := extractFeedbackColumn([]byte("only,a,header\n"))
	assert.Error(t, err)

	_, err = extractFeedbackColumn([]byte("a,b\n1,2\n"))
	assert.Error(t, err)

	_, err = extractFeedbackColumn([]byte{0xff, 0xfe, 0x00})
	assert.Error(t, err)
}
