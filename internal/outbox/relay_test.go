package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffExponentialCappedAt300s(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, 256 * time.Second},
		{20, 256 * time.Second},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, backoff(tc.attempts))
	}
}
