package parser

import "regexp"

// messageStartPattern matches the timestamp prefix that opens a message:
// day/month/year, optional comma, hour:minute, optional AM/PM marker, " -".
// The space before the marker may be a no-break or narrow no-break space,
// which exports use before "AM"/"PM".
var messageStartPattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4},? \d{1,2}:\d{2}[\s\x{00A0}\x{202F}]?(?:[aApP]\.?[mM]\.?)?) -`)

// IsMessageStart reports whether line begins a new message.
// Anything else, including malformed timestamps, is a continuation line.
func IsMessageStart(line string) bool {
	return messageStartPattern.MatchString(line)
}

// MessageStartPattern returns the pattern used by IsMessageStart.
func MessageStartPattern() *regexp.Regexp {
	return messageStartPattern
}
