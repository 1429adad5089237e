package clips

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Filename limits.
const (
	MaxNameLen   = 80
	MaxPlayerLen = 40
	placeholder  = "na"
	clipExt      = ".mp4"
)

// Window computes the clip range for an event at t seconds. Negative offsets
// count as zero. When the pre-roll would start before zero the clip starts at
// zero and keeps the full post window, so dur becomes t + post.
func Window(t, pre, post float64) (start, dur float64) {
	pre = math.Max(0, pre)
	post = math.Max(0, post)
	start = t - pre
	dur = pre + post
	if start < 0 {
		start = 0
		dur = t + post
	}
	return start, dur
}

// Sanitize makes s safe for a filename: surrounding space is trimmed, inner
// spaces become underscores, and only ASCII letters, digits, '_', '-' and
// '.' are kept. The result is cut to maxLen bytes when maxLen > 0, and an
// empty result becomes "na". Sanitize is idempotent.
func Sanitize(s string, maxLen int) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; isNameByte(c) {
			b.WriteByte(c)
		}
	}
	out := b.String()
	if out == "" {
		out = placeholder
	}
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}

func isNameByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '-', c == '.':
		return true
	}
	return false
}

// ClipName builds the clip filename for an event, for example
// "game1_spike_succ_Johnny_Tran_45200_1.mp4". The name fits MaxNameLen
// together with the extension. When it would not, the video, action,
// outcome and player part is shortened so the "_{ms}_{event_id}" suffix
// that makes names unique is kept.
func ClipName(videoFilename, action, outcome, player string, t float64, eventID string) string {
	base := filepath.Base(strings.TrimSpace(videoFilename))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	tok := "fail"
	if strings.TrimSpace(outcome) == "1" {
		tok = "succ"
	}
	budget := MaxNameLen - len(clipExt)
	head := Sanitize(fmt.Sprintf("%s_%s_%s_%s", base, action, tok, Sanitize(player, MaxPlayerLen)), 0)
	tail := "_" + strconv.FormatInt(int64(math.Round(t*1000)), 10) + "_" + Sanitize(eventID, 0)
	if keep := budget - len(tail); keep > 0 && len(head) > keep {
		head = head[:keep]
	}
	return Sanitize(head+tail, budget) + clipExt
}
