package log

import "github.com/sirupsen/logrus"

// silentFormatter produces no output. Logrus formats every entry even
// when the logger writes to io.Discard, so the standard logger gets this
// formatter and the hook performs the real formatting.
type silentFormatter struct{}

func (f *silentFormatter) Format(_ *logrus.Entry) ([]byte, error) {
	return nil, nil
}
