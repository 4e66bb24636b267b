package formats

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytdl/errs"
	"github.com/ytget/ytdl/internal/mimeext"
	"github.com/ytget/ytdl/types"
)

var heightRe = regexp.MustCompile(`([0-9]{3,4})p`)

// preferredItags are tried in order by the default selector: 720p and 360p
// progressive mp4, the two legacy streams that carry audio and video.
var preferredItags = []int{22, 18}

// SelectMode is the ranking a Selector applies once its filters ran.
type SelectMode int

const (
	// SelectDefault prefers the legacy progressive itags, then progressive
	// avc1 mp4, then the best remaining source.
	SelectDefault SelectMode = iota
	SelectBest
	SelectWorst
	SelectItag
)

// Selector picks one source out of a resolved source list. Only playable
// sources are considered: a URL is set and resolution recorded no error.
// Explicit constraints are strict; when nothing satisfies them Select fails
// instead of falling back to another source.
type Selector struct {
	Mode      SelectMode
	Itag      int
	MinHeight int
	MaxHeight int
	// Ext is compared with the source extension, without the leading dot.
	Ext string
}

// ParseSelector parses quality and ext. quality is a comma separated list of
// terms: best, worst, itag=NN, height<=NNN, height>=NNN. An empty quality
// selects the default ranking. ext may carry a leading dot.
func ParseSelector(quality, ext string) (Selector, error) {
	sel := Selector{Ext: strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")}

	for _, term := range strings.Split(strings.ToLower(quality), ",") {
		term = strings.ReplaceAll(term, " ", "")
		switch {
		case term == "":
		case term == "best":
			sel.Mode = SelectBest
		case term == "worst":
			sel.Mode = SelectWorst
		case strings.HasPrefix(term, "itag="):
			n, err := positive(strings.TrimPrefix(term, "itag="))
			if err != nil {
				return Selector{}, fmt.Errorf("%w: %q: %w", errs.ErrInvalidSelector, term, err)
			}
			sel.Mode, sel.Itag = SelectItag, n
		case strings.HasPrefix(term, "height<="):
			n, err := positive(strings.TrimPrefix(term, "height<="))
			if err != nil {
				return Selector{}, fmt.Errorf("%w: %q: %w", errs.ErrInvalidSelector, term, err)
			}
			sel.MaxHeight = n
		case strings.HasPrefix(term, "height>="):
			n, err := positive(strings.TrimPrefix(term, "height>="))
			if err != nil {
				return Selector{}, fmt.Errorf("%w: %q: %w", errs.ErrInvalidSelector, term, err)
			}
			sel.MinHeight = n
		default:
			return Selector{}, fmt.Errorf("%w: unknown term %q", errs.ErrInvalidSelector, term)
		}
	}
	if sel.MinHeight > 0 && sel.MaxHeight > 0 && sel.MinHeight > sel.MaxHeight {
		return Selector{}, fmt.Errorf("%w: height>=%d exceeds height<=%d", errs.ErrInvalidSelector, sel.MinHeight, sel.MaxHeight)
	}
	return sel, nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

// Select returns a copy of the chosen source.
func (s Selector) Select(list []types.Format) (*types.Format, error) {
	candidates := Playable(list)
	if len(candidates) == 0 {
		failed := 0
		for _, f := range list {
			if f.Err != "" {
				failed++
			}
		}
		return nil, fmt.Errorf("%w: none of %d sources is playable, %d failed to resolve", errs.ErrNoSources, len(list), failed)
	}

	if s.Ext != "" {
		candidates = filter(candidates, func(f types.Format) bool { return Ext(f) == s.Ext })
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no playable %s source", errs.ErrNoSources, s.Ext)
		}
	}
	if s.MinHeight > 0 || s.MaxHeight > 0 {
		candidates = filter(candidates, func(f types.Format) bool {
			h := Height(f)
			return (s.MinHeight == 0 || h >= s.MinHeight) && (s.MaxHeight == 0 || h <= s.MaxHeight)
		})
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no playable source within height %d..%d", errs.ErrNoSources, s.MinHeight, s.MaxHeight)
		}
	}

	var chosen types.Format
	switch s.Mode {
	case SelectItag:
		found := false
		for _, f := range candidates {
			if f.Itag == s.Itag {
				chosen, found = f, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: no playable source with itag %d", errs.ErrNoSources, s.Itag)
		}
	case SelectBest:
		chosen = rankFirst(candidates, Better)
	case SelectWorst:
		chosen = rankFirst(candidates, func(a, b types.Format) bool { return Better(b, a) })
	default:
		chosen = s.fallback(candidates)
	}

	log.Debug("source selected", map[string]interface{}{
		"itag":       chosen.Itag,
		"quality":    chosen.Quality,
		"deciphered": Deciphered(chosen),
		"candidates": len(candidates),
	})
	return &chosen, nil
}

func (s Selector) fallback(candidates []types.Format) types.Format {
	// A height bound asks for the best source in range, not a legacy itag.
	if s.MinHeight == 0 && s.MaxHeight == 0 {
		for _, itag := range preferredItags {
			for _, f := range candidates {
				if f.Itag == itag {
					return f
				}
			}
		}
		progressive := filter(candidates, func(f types.Format) bool {
			mime := strings.ToLower(f.MimeType)
			return strings.HasPrefix(mime, "video/mp4") && strings.Contains(mime, "avc1")
		})
		if len(progressive) > 0 {
			return rankFirst(progressive, Better)
		}
	}
	return rankFirst(candidates, Better)
}

// SelectFormat parses quality and ext and selects from list.
func SelectFormat(list []types.Format, quality, ext string) (*types.Format, error) {
	sel, err := ParseSelector(quality, ext)
	if err != nil {
		return nil, err
	}
	return sel.Select(list)
}

// Playable returns the sources that have a URL and no resolution error.
func Playable(list []types.Format) []types.Format {
	return filter(list, func(f types.Format) bool {
		return strings.TrimSpace(f.URL) != "" && f.Err == ""
	})
}

// Deciphered reports whether f's URL carries a signature, either deciphered
// from a cipher or taken from a legacy sig field.
func Deciphered(f types.Format) bool {
	return f.Signature != "" || f.SignatureCipher != ""
}

// Better reports whether a ranks above b: taller first, then higher bitrate,
// then a direct URL over one that needed a signature.
func Better(a, b types.Format) bool {
	if ha, hb := Height(a), Height(b); ha != hb {
		return ha > hb
	}
	if a.Bitrate != b.Bitrate {
		return a.Bitrate > b.Bitrate
	}
	return !Deciphered(a) && Deciphered(b)
}

// Height returns the pixel height from the quality label, 0 for audio and
// unlabelled sources.
func Height(f types.Format) int {
	m := heightRe.FindStringSubmatch(f.Quality)
	if len(m) < 2 {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	return h
}

// Ext returns the source extension, derived from the mime type when unset.
func Ext(f types.Format) string {
	if f.Ext != "" {
		return strings.ToLower(f.Ext)
	}
	return mimeext.ExtFromMime(f.MimeType)
}

func filter(list []types.Format, keep func(types.Format) bool) []types.Format {
	out := make([]types.Format, 0, len(list))
	for _, f := range list {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// rankFirst returns the first source no other source ranks above; earlier
// sources win ties.
func rankFirst(list []types.Format, above func(a, b types.Format) bool) types.Format {
	best := list[0]
	for _, f := range list[1:] {
		if above(f, best) {
			best = f
		}
	}
	return best
}
