// Package predicate evaluates a (field value, operator, literal) triple:
// string equality, numeric/date/lexicographic ordering, and SQL LIKE
// matching with a per-pattern compiled-regex cache.
package predicate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quirkdb/quirkdb/internal/types"
)

const dateLayout = "2006-01-02"

var likeCache sync.Map // pattern string -> *regexp.Regexp

// Eval evaluates fieldValue op literal and returns the boolean result.
func Eval(fieldValue, op, literal string) (bool, error) {
	switch op {
	case "=":
		return fieldValue == literal, nil
	case "!=":
		return fieldValue != literal, nil
	case "<", ">", "<=", ">=":
		return compare(fieldValue, op, literal)
	case "LIKE":
		re, err := compileLike(literal)
		if err != nil {
			return false, err
		}
		return re.MatchString(fieldValue), nil
	default:
		return false, fmt.Errorf("predicate: %q: %w", op, types.ErrUnknownOperator)
	}
}

// compare implements the numeric -> date -> lexicographic ladder shared by
// <, >, <=, >=.
func compare(lhs, op, rhs string) (bool, error) {
	cmp := Compare(lhs, rhs)
	return applyCmp(cmp, op), nil
}

// Compare returns -1, 0, or 1 for lhs compared to rhs using the same
// numeric -> date -> lexicographic ladder as the <, >, <=, >= operators.
// Used by ORDER BY, which needs a three-way comparison rather than a
// single operator's boolean result.
func Compare(lhs, rhs string) int {
	if ln, lok := tryFloat(lhs); lok {
		if rn, rok := tryFloat(rhs); rok {
			return cmpFloat(ln, rn)
		}
	}
	if lt, lok := tryDate(lhs); lok {
		if rt, rok := tryDate(rhs); rok {
			return cmpTime(lt, rt)
		}
	}
	return strings.Compare(lhs, rhs)
}

func applyCmp(cmp int, op string) bool {
	switch op {
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func tryFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func tryDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// compileLike translates a SQL LIKE pattern to an anchored,
// case-insensitive regexp and caches the compiled result per pattern.
func compileLike(pattern string) (*regexp.Regexp, error) {
	if v, ok := likeCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch {
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		case isAlnum(r):
			b.WriteRune(r)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("predicate: compile LIKE pattern %q: %w", pattern, err)
	}
	likeCache.Store(pattern, re)
	return re, nil
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
