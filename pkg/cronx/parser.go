package cronx

import "github.com/robfig/cron/v3"

// StandardParser returns the application-wide cron expression parser.
//
// The parser accepts the 6-field format with a leading seconds field;
// the plain 5-field format is not supported.
//
// Supported syntax:
//   - field order: [second] [minute] [hour] [day-of-month] [month] [day-of-week]
//   - descriptors: @daily, @hourly, @every <duration> and friends
//
// Examples:
//   - "0 */5 * * * *" : every 5 minutes at second 0
//   - "@daily"        : every day at midnight
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate reports whether spec is a valid cron expression for
// StandardParser. A nil return means the expression parses.
func Validate(spec string) error {
	_, err := StandardParser().Parse(spec)
	return err
}
