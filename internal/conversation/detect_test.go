package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnsafeRequest(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"do you do BBS?", true},
		{"bareback ok", true},
		{"no condom please", true},
		{"raw", true},
		{"bb", true},
		{"drawing room", false},
		{"BBBJ", false},
		{"hello", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUnsafeRequest(tt.text), tt.text)
	}
}

func TestHasProfanity(t *testing.T) {
	assert.False(t, HasProfanity("damn"))
	assert.False(t, HasProfanity("damn damn damn"))
	assert.False(t, HasProfanity("hello shell"))
	assert.True(t, HasProfanity("damn this shit"))
	assert.True(t, HasProfanity("What The HELL, damn"))
}

func TestIsCancellation(t *testing.T) {
	for _, text := range []string{"I need to cancel", "can't make it", "Cannot make tonight", "not coming sorry", "can we reschedule", "CHANGE BOOKING"} {
		assert.True(t, IsCancellation(text), text)
	}
	assert.False(t, IsCancellation("see you tonight"))
}

func TestIsYesAndDeposit(t *testing.T) {
	assert.True(t, IsYes("John YES"))
	assert.True(t, IsYes("yes."))
	assert.False(t, IsYes("yesterday"))
	assert.False(t, IsYes("eyes"))

	assert.True(t, IsDepositRequest(" deposit "))
	assert.True(t, IsDepositRequest("DEPOSIT"))
	assert.False(t, IsDepositRequest("deposit sent"))
}

func TestEnquiryText(t *testing.T) {
	text, ok := EnquiryText("ENQUIRY  what are your rates?")
	assert.True(t, ok)
	assert.Equal(t, "what are your rates?", text)

	text, ok = EnquiryText("enquiry")
	assert.True(t, ok)
	assert.Empty(t, text)

	_, ok = EnquiryText("an enquiry")
	assert.False(t, ok)
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"John YES", "John"},
		{"yes john smith", "John Smith"},
		{"Yes, Dave!", "Dave"},
		{"ok yes", ""},
		{"yeah yes", ""},
		{"yes", ""},
		{"J yes", ""},
		{"sure yes mike", "Mike"},
		{"Yes please", ""},
		{"yes thanks", ""},
		{"yes thank you!", ""},
		{"cheers yes", ""},
		{"yes please, Tom", "Tom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractName(tt.text), tt.text)
	}
}
