package util

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"commoni-api/pkg/apierror"
)

func TestValidateLoginID(t *testing.T) {
	t.Parallel()

	t.Run("accepts ordinary ids", func(t *testing.T) {
		for _, id := range []string{"alice", "svc-account_01", "user@example.com", "김철수", strings.Repeat("a", 50)} {
			require.NoError(t, ValidateLoginID(id), id)
		}
	})

	t.Run("rejects", func(t *testing.T) {
		cases := map[string]string{
			"empty":          "",
			"blank":          "   ",
			"too long":       strings.Repeat("a", 51),
			"too long runes": strings.Repeat("é", 51),
			"inner space":    "alice smith",
			"tab":            "alice\t",
			"null byte":      "ali\x00ce",
			"zero width":     "ali\u200bce",
			"bom":            "\ufeffalice",
			"slash":          "alice/admin",
			"backslash":      `alice\admin`,
			"query":          "alice?x=1",
			"fragment":       "alice#1",
			"percent":        "alice%2F",
			"dot":            ".",
			"dot dot":        "..",
			"invalid utf8":   "ali\xffce",
		}

		for name, id := range cases {
			err := ValidateLoginID(id)
			require.Error(t, err, name)

			apiErr, ok := apierror.As(err)
			require.True(t, ok, name)
			require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus, name)
			require.Equal(t, "id", apiErr.Details, name)
		}
	})
}
