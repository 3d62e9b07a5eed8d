package safety

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainsCrisisLanguage(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    bool
	}{
		{name: "mixed case phrase", message: "I just want to DIE today", want: true},
		{name: "suicide", message: "thinking about suicide", want: true},
		{name: "kill myself", message: "sometimes I want to kill myself", want: true},
		{name: "end my life", message: "I might END MY LIFE", want: true},
		{name: "self-harm", message: "I've been doing self-harm again", want: true},
		{name: "hurt myself", message: "I want to hurt myself", want: true},
		{name: "not worth living", message: "life is not worth living", want: true},
		{name: "substring inside larger word", message: "watched a documentary on suicides", want: true},
		{name: "no separator", message: "iwanttodie", want: false},
		{name: "benign", message: "I had a rough day at work", want: false},
		{name: "hyphen required", message: "self harm", want: false},
		{name: "empty", message: "", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ContainsCrisisLanguage(tc.message))
		})
	}
}

func TestMatchCrisisKeyword_ReturnsKeyword(t *testing.T) {
	kw, ok := MatchCrisisKeyword("Everything feels NOT WORTH LIVING")
	require.True(t, ok)
	require.Equal(t, "not worth living", kw)

	kw, ok = MatchCrisisKeyword("hello")
	require.False(t, ok)
	require.Empty(t, kw)
}

func TestCrisisKeywords_ReturnsCopy(t *testing.T) {
	kws := CrisisKeywords()
	require.Equal(t, []string{
		"suicide",
		"kill myself",
		"end my life",
		"self-harm",
		"hurt myself",
		"want to die",
		"not worth living",
	}, kws)

	kws[0] = "changed"
	require.Equal(t, "suicide", CrisisKeywords()[0])
	require.True(t, ContainsCrisisLanguage("suicide"))
}

func TestCrisisMessage_Text(t *testing.T) {
	require.Equal(t, "I hear that you're in a lot of pain, and it's important to talk to someone who can help. "+
		"Please reach out to the 988 Suicide & Crisis Lifeline (call or text 988) or contact emergency services (911). "+
		"You don't have to go through this alone.", CrisisMessage)
}
