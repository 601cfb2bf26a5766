package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactSecret(t *testing.T) {
	assert.Equal(t, "EAAB***", RedactSecret("EAABsbCS1iHgBAsecrettoken"))
	assert.Equal(t, "***", RedactSecret("abc"))
	assert.Equal(t, "***", RedactSecret(""))
}

func TestRedactValueByKeyHint(t *testing.T) {
	assert.Equal(t, "EAAB***", redactValue("access_token", "EAABsbCS1iHg"))
	assert.Equal(t, "my-s***", redactValue("app_secret", "my-secret-value"))
	assert.Equal(t, "hunt***", redactValue("db_password", "hunter22x"))
	assert.Equal(t, "plain value", redactValue("message", "plain value"))
}

func TestRedactValueInURL(t *testing.T) {
	url := "https://graph.example.com/v19.0/me?access_token=EAABsbCS1iHg&fields=id"
	got := redactValue("url", url)

	assert.NotContains(t, got, "EAABsbCS1iHg")
	assert.Contains(t, got, "access_token=EAAB***")
	assert.Contains(t, got, "fields=id")
}
