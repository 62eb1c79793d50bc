package ai

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func responseWithRetryAfter(v string) *http.Response {
	h := http.Header{}
	if v != "" {
		h.Set("Retry-After", v)
	}
	return &http.Response{Header: h}
}

func TestRetryAfterHint_DelaySeconds(t *testing.T) {
	assert.Equal(t, 30*time.Second, retryAfterHint(responseWithRetryAfter("30")))
}

func TestRetryAfterHint_HTTPDate(t *testing.T) {
	at := time.Now().Add(90 * time.Second).UTC()

	wait := retryAfterHint(responseWithRetryAfter(at.Format(http.TimeFormat)))

	assert.Greater(t, wait, 80*time.Second)
	assert.LessOrEqual(t, wait, 90*time.Second)
}

func TestRetryAfterHint_PastDateOrGarbageIgnored(t *testing.T) {
	past := time.Now().Add(-time.Minute).UTC()

	assert.Equal(t, time.Duration(0), retryAfterHint(responseWithRetryAfter(past.Format(http.TimeFormat))))
	assert.Equal(t, time.Duration(0), retryAfterHint(responseWithRetryAfter("soon")))
	assert.Equal(t, time.Duration(0), retryAfterHint(responseWithRetryAfter("")))
}
