package assets

import "errors"

// Error kinds surfaced by the archive and its codecs. Callers match with
// errors.Is; messages carry the offending uid and path when known.
var (
	ErrIO           = errors.New("io error")
	ErrFormat       = errors.New("format error")
	ErrTypeDispatch = errors.New("type dispatch error")
	ErrCodec        = errors.New("codec error")
	ErrCompression  = errors.New("compression error")
)
