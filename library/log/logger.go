// Package log is the package-wide structured logger.
package log

import (
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

// Logger is the shared application logger. Components should call
// Logger.Named(...) to scope their own log lines.
var Logger glog.Logger

func init() {
	var err error
	if Logger, err = glog.NewConsoleWithName("query-router", glog.LevelInfo); err != nil {
		glog.Shared.Panic("new logger", zap.Error(err))
	}
}
