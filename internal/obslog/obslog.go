// Package obslog configures process-wide logging once per process (its
// caller is cmd/warplint-lsp), matching the single commonlog.Configure
// call kanso's own LSP entrypoint makes at startup. Call sites still log
// through the standard "log" package afterward, same as kanso does.
package obslog

import (
	"sync"

	"github.com/tliron/commonlog"
)

var once sync.Once

// Configure sets commonlog's verbosity (0 = errors/warnings only, higher
// values add info/debug detail) exactly once per process, regardless of how
// many entrypoints or tests call it.
func Configure(verbosity int) {
	once.Do(func() {
		commonlog.Configure(verbosity, nil)
	})
}
