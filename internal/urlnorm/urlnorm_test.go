package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgrid/toolgrid/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantKey     string
		wantDisplay string
		wantHost    string
		wantErr     error
	}{
		{
			name:        "bare host",
			input:       "example.com",
			wantKey:     "example.com",
			wantDisplay: "example.com",
			wantHost:    "example.com",
		},
		{
			name:        "scheme and www stripped",
			input:       "https://www.example.com",
			wantKey:     "example.com",
			wantDisplay: "example.com",
			wantHost:    "example.com",
		},
		{
			name:        "upper case host and scheme",
			input:       "HTTPS://WWW.Example.com/Path/",
			wantKey:     "example.com/path",
			wantDisplay: "example.com/path",
			wantHost:    "example.com",
		},
		{
			name:        "http scheme with trailing slash",
			input:       "http://example.com/path/",
			wantKey:     "example.com/path",
			wantDisplay: "example.com/path",
			wantHost:    "example.com",
		},
		{
			name:        "bare host with path",
			input:       "example.com/path",
			wantKey:     "example.com/path",
			wantDisplay: "example.com/path",
			wantHost:    "example.com",
		},
		{
			name:        "root path collapses",
			input:       "example.com/",
			wantKey:     "example.com",
			wantDisplay: "example.com",
			wantHost:    "example.com",
		},
		{
			name:        "multiple trailing slashes",
			input:       "https://example.com/a/b///",
			wantKey:     "example.com/a/b",
			wantDisplay: "example.com/a/b",
			wantHost:    "example.com",
		},
		{
			name:        "surrounding whitespace",
			input:       "  chatgpt.com  ",
			wantKey:     "chatgpt.com",
			wantDisplay: "chatgpt.com",
			wantHost:    "chatgpt.com",
		},
		{
			name:        "port is dropped from host",
			input:       "https://www.Example.com:8080/x",
			wantKey:     "example.com/x",
			wantDisplay: "example.com/x",
			wantHost:    "example.com",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: domain.ErrEmptyURL,
		},
		{
			name:    "whitespace only",
			input:   "   \t ",
			wantErr: domain.ErrEmptyURL,
		},
		{
			name:    "unparseable",
			input:   "http://[::1",
			wantErr: domain.ErrInvalidURL,
		},
		{
			name:    "scheme without host",
			input:   "https:///just-a-path",
			wantErr: domain.ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Normalize(tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, result.Key)
			assert.Equal(t, tt.wantDisplay, result.Display)
			assert.Equal(t, tt.wantHost, result.Host)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"HTTPS://WWW.Example.com/Path/",
		"example.com",
		"http://sub.domain.example.org/a/b/",
	}

	for _, input := range inputs {
		first, err := Normalize(input)
		require.NoError(t, err)

		second, err := Normalize(first.Key)
		require.NoError(t, err)
		assert.Equal(t, first.Key, second.Key, "normalizing %q twice changed the key", input)
	}
}

func TestNormalize_EquivalentForms(t *testing.T) {
	forms := []string{
		"HTTPS://WWW.Example.com/Path/",
		"example.com/path",
		"http://example.com/path/",
	}

	var keys []string
	for _, form := range forms {
		result, err := Normalize(form)
		require.NoError(t, err)
		keys = append(keys, result.Key)
	}

	for _, key := range keys {
		assert.Equal(t, "example.com/path", key)
	}
}
