package stream

// Stream is one livestream session owned by a creator.
type Stream struct {
	ID                 uint64   `json:"id"`
	Creator            [20]byte `json:"creator"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	MediaURI           string   `json:"mediaUri"`
	Category           string   `json:"category"`
	StartedAt          uint64   `json:"startedAt"`
	EndedAt            uint64   `json:"endedAt"`
	Active             bool     `json:"active"`
	ViewerCount        uint64   `json:"viewerCount"`
	TotalPointsAwarded uint64   `json:"totalPointsAwarded"`
}

// Clone returns a copy of the stream.
func (s *Stream) Clone() *Stream {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Duration returns the number of seconds the stream was live. Streams that
// are still live or whose end did not advance past the start report zero.
func (s *Stream) Duration() uint64 {
	if s == nil || s.EndedAt <= s.StartedAt {
		return 0
	}
	return s.EndedAt - s.StartedAt
}
