package pwospfd

import "github.com/sirupsen/logrus"

// logger is the package-wide structured logger. It defaults to logrus's
// standard logger so the package is usable without any setup; embedders wire
// their own via SetLogger.
var logger = logrus.StandardLogger()

// SetLogger replaces the package-wide logger, e.g. to attach fields
// identifying the owning router or to redirect output.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		return
	}
	logger = l
}
