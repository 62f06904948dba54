package archive

import (
	"strings"

	"github.com/okian/bingonight/pkg/logger"
)

const defaultPrefix = "bingonight"

// Option applies a configuration option to the Archiver.
type Option func(*Archiver)

// WithPrefix sets the key prefix objects are written under.
func WithPrefix(prefix string) Option {
	return func(a *Archiver) {
		if p := strings.Trim(prefix, "/"); p != "" {
			a.prefix = p
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Archiver) {
		if l != nil {
			a.logger = l
		}
	}
}
