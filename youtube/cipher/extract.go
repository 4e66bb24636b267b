package cipher

import (
	"regexp"
	"strconv"

	"github.com/ytget/ytdl/internal/logger"
)

// Extractor derives the token sequence of a player script by trying each of
// its strategies in order.
type Extractor struct {
	strategies []Strategy
	log        *logger.ComponentLogger
}

// NewExtractor returns an Extractor over strategies, or over
// DefaultStrategies when none are given.
func NewExtractor(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{
		strategies: strategies,
		log:        logger.WithComponent(logger.ComponentCipher),
	}
}

var defaultExtractor = NewExtractor()

// Extract runs the default strategies over script.
func Extract(script string) (TokenSequence, error) {
	return defaultExtractor.Extract(script)
}

// Progress stages, used to pick which failure to report.
const (
	stageNone = iota
	stageLocated
	stageResolved
	stageDone
)

// Extract returns the first sequence any strategy produces. When all of them
// fail the error of the strategy that got furthest is returned; ties go to
// the strategy tried first.
func (e *Extractor) Extract(script string) (TokenSequence, error) {
	var (
		bestErr   error
		bestStage = -1
	)
	for _, s := range e.strategies {
		seq, stage, err := e.extractWith(s, script)
		if err == nil {
			e.log.Debug("token sequence extracted", map[string]interface{}{
				"strategy": s.Name(),
				"tokens":   seq.String(),
			})
			return seq, nil
		}
		e.log.Trace("strategy failed", map[string]interface{}{
			"strategy": s.Name(),
			"error":    err.Error(),
		})
		if stage > bestStage {
			bestStage, bestErr = stage, err
		}
	}
	if bestErr == nil {
		bestErr = NewError(ErrCodeFunctionNotFound, "no extraction strategy configured")
	}
	return nil, bestErr
}

func (e *Extractor) extractWith(s Strategy, script string) (TokenSequence, int, error) {
	loc, err := s.Locate(script)
	if err != nil {
		if loc != nil {
			return nil, stageLocated, err
		}
		return nil, stageNone, err
	}

	keys, err := resolveKeys(loc.ObjectBody, s.shapes(), e.log)
	if err != nil {
		return nil, stageLocated, err
	}

	re, err := s.CallPattern(loc, keys.Keys())
	if err != nil {
		return nil, stageResolved, err
	}

	seq, err := walkCalls(re, loc, keys)
	if err != nil {
		return nil, stageResolved, err
	}
	return seq, stageDone, nil
}

// checkCalls rejects a call sequence containing a call the resolved keys do
// not cover: a call on another object, an unresolved key or a call on a
// different parameter. Dropping such a call would yield a shorter sequence
// that replays to the wrong signature.
func checkCalls(loc *Located, keys KeyTable) (int, error) {
	all := anyCallRegexp.FindAllStringSubmatch(loc.Calls, -1)
	for _, m := range all {
		key := m[2] + m[3] + m[4]
		if m[1] != loc.Object {
			return 0, NewError(ErrCodePatternMismatch, "call on unexpected object in call sequence", m[0])
		}
		if _, ok := keys[key]; !ok {
			return 0, NewError(ErrCodePatternMismatch, "call uses an unresolved operation key", m[0])
		}
		if loc.Param != "" && m[5] != loc.Param {
			return 0, NewError(ErrCodePatternMismatch, "call does not operate on the signature", m[0])
		}
	}
	return len(all), nil
}

// walkCalls emits one token per call matched by re, in source order. Every
// call in the sequence must be matched, otherwise extraction fails.
func walkCalls(re *regexp.Regexp, loc *Located, keys KeyTable) (TokenSequence, error) {
	want, err := checkCalls(loc, keys)
	if err != nil {
		return nil, err
	}

	var seq TokenSequence
	for _, m := range re.FindAllStringSubmatch(loc.Calls, -1) {
		if len(m) < 5 {
			continue
		}
		key := m[1]
		if key == "" {
			key = m[2]
		}
		if key == "" {
			key = m[3]
		}
		kind, ok := keys[key]
		if !ok {
			return nil, NewError(ErrCodePatternMismatch, "call uses an unresolved operation key", m[0])
		}
		n, err := strconv.Atoi(m[4])
		if err != nil || n < 0 {
			return nil, wrapError(ErrCodeOperandParse, "invalid operand in call sequence", err, m[0])
		}
		seq = append(seq, Token{Kind: kind, Operand: n})
	}
	if len(seq) == 0 {
		return nil, NewError(ErrCodePatternMismatch, "call sequence matched no resolved operation", loc.Calls)
	}
	if len(seq) != want {
		return nil, NewError(ErrCodePatternMismatch, "call sequence only partially matched", map[string]int{
			"calls":   want,
			"matched": len(seq),
		})
	}
	return seq, nil
}
