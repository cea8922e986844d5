package status

import "fmt"

// ErrorCode is a numeric code to classify API errors in a stable way
type ErrorCode int

// Reserved ranges by domain:
//   1000-1999: grammar grading
//   2000-2999: speech synthesis
//   9000-9999: server

// Grammar grading codes (1000-1999)
const (
	GrammarInvalidRequestBody ErrorCode = 1000 + iota // 1000
	GrammarMissingParams                              // 1001
	GrammarNotConfigured                              // 1002
	GrammarUpstreamFailed                             // 1003
	GrammarInternal                                   // 1004
)

// Speech synthesis codes (2000-2999)
const (
	SpeechInvalidRequestBody ErrorCode = 2000 + iota // 2000
	SpeechMissingText                                // 2001
	SpeechNotConfigured                              // 2002
	SpeechUpstreamFailed                             // 2003
	SpeechInternal                                   // 2004
)

// Server codes (9000-9999)
const (
	ErrorCodeInternal ErrorCode = 9000 + iota // 9000
	ErrorCodeNotFound                         // 9001
	ErrorCodeOverloaded                       // 9002
	ErrorCodePanic                            // 9003
)

// String renders the code the way it appears in responses.
func (c ErrorCode) String() string {
	return fmt.Sprintf("GP-%d", int(c))
}
