// Package logrusconfig creates uniformly configured loggers for the
// example programs and for applications using this library. Library
// packages never configure logging themselves; they accept a
// *logrus.Entry and stay silent when given none.
package logrusconfig

import (
	"flag"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

var loglevel *int

// InitParam registers the -loglevel flag. Call it before flag.Parse.
func InitParam() {
	loglevel = flag.Int("loglevel", int(logrus.InfoLevel), "The loglevel to use. Valid values are from 0 to 6. Higher values output more information")
}

// GetLogger returns a logger entry tagged with the given prefix. The
// level is taken from the -loglevel flag when InitParam was used,
// otherwise from the level parameter.
func GetLogger(prefix string, level logrus.Level) *logrus.Entry {
	logrus.ErrorKey = "$error"

	logger := logrus.New()
	if loglevel == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.Level(*loglevel))
	}

	customFormatter := new(prefixed.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	customFormatter.PrefixPadding = 20
	logger.SetFormatter(customFormatter)

	entry := logrus.NewEntry(logger)
	if prefix != "" {
		entry = entry.WithField("prefix", prefix)
	}

	return entry
}
