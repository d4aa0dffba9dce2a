package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailgunSender_NilWhenUnconfigured(t *testing.T) {
	assert.Nil(t, NewMailgunSender(nil))
	assert.Nil(t, NewMailgunSender(&Config{Domain: "mg.example.com"}))
	assert.Nil(t, NewMailgunSender(&Config{Domain: "mg.example.com", APIKey: "key"}))
}

func TestConfig_From(t *testing.T) {
	assert.Equal(t, "hello@clawsec.dev", (&Config{FromEmail: "hello@clawsec.dev"}).from())
	assert.Equal(t, "Clawsec <hello@clawsec.dev>", (&Config{FromEmail: "hello@clawsec.dev", FromName: "Clawsec"}).from())
}

func TestMailgunSender_RejectsEmptyRecipient(t *testing.T) {
	s := NewMailgunSender(&Config{Domain: "mg.example.com", APIKey: "key", FromEmail: "hello@clawsec.dev"})
	require.NotNil(t, s)

	_, err := s.Send(context.Background(), Message{Subject: "hi"})
	assert.Error(t, err)
}
