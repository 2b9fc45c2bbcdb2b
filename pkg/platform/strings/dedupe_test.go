package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trims and removes duplicates",
			input: []string{" kafka-1:9092 ", "kafka-2:9092", "kafka-1:9092", ""},
			want:  []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:  "whitespace-only elements are dropped",
			input: []string{"  ", "\t", "kafka-1:9092"},
			want:  []string{"kafka-1:9092"},
		},
		{
			name:  "order of first occurrence wins",
			input: []string{"b", "a", "b", "a"},
			want:  []string{"b", "a"},
		},
		{
			name:  "empty input",
			input: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}
