package kialo_test

import (
	"errors"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	gt.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func errorsAs(err error, target any) bool {
	return errors.As(err, target)
}
