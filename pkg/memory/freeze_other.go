//go:build !linux

package memory

import (
	"go.uber.org/zap"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

func freeze(pid int, log *zap.Logger) (func() error, error) {
	return nil, errs.New(errs.KindAccessDenied, "freeze", "not supported on this platform")
}
