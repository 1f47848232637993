package acquire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OllyCat/tsgrab/internal/acquire"
)

func TestValidSegment(t *testing.T) {
	withSync := func(n int) []byte {
		b := make([]byte, n)
		if n > 0 {
			b[0] = acquire.SyncByte
		}
		return b
	}

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"exactly one packet", withSync(188), true},
		{"one byte short", withSync(187), false},
		{"wrong sync byte", make([]byte, 300), false},
		{"empty", nil, false},
		{"several packets", withSync(188 * 7), true},
		{"html error page", bytes.Repeat([]byte("<html>"), 64), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, acquire.ValidSegment(tt.data))
		})
	}
}
